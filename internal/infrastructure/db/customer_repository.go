package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type customerRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomerRepository(db *gorm.DB, log *logger.Logger) ports.CustomerRepository {
	return &customerRepository{db: db, log: log}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		r.log.Errorw("customer_repo_create_failed", "id", customer.ID, "error", err)
		return err
	}
	r.log.Infow("customer_repo_create_ok", "id", customer.ID, "business_name", customer.BusinessName)
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Errorw("customer_repo_get_failed", "id", id, "error", err)
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetAll(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&customers).Error; err != nil {
		r.log.Errorw("customer_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Infow("customer_repo_list_ok", "count", len(customers))
	return customers, nil
}

// Patch updates the set columns, or inserts the row when it does not exist
// yet. New rows take CreatedAt from the patch's UpdatedAt so they match the
// cache record that produced them.
func (r *customerRepository) Patch(ctx context.Context, id string, patch domain.CustomerPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		cols["updated_at"] = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Customer{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		customer := &domain.Customer{
			ID:            id,
			Status:        domain.CustomerStatusOnboarding,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}
		patch.ApplyTo(customer)
		if patch.UpdatedAt != nil {
			customer.CreatedAt = *patch.UpdatedAt
		}
		return tx.Create(customer).Error
	})
	if err != nil {
		r.log.Errorw("customer_repo_patch_failed", "id", id, "columns", len(cols), "error", err)
		return err
	}
	r.log.Debugw("customer_repo_patch_ok", "id", id, "columns", len(cols))
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Customer{})
	if res.Error != nil {
		r.log.Errorw("customer_repo_delete_failed", "id", id, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.Infow("customer_repo_delete_ok", "id", id)
	return nil
}

// customerRemote adapts the repository to the sync engine's remote port.
type customerRemote struct {
	repo ports.CustomerRepository
}

func NewCustomerRemote(repo ports.CustomerRepository) ports.CustomerRemote {
	return &customerRemote{repo: repo}
}

func (r *customerRemote) Read(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := r.repo.GetByID(ctx, id)
	return customer, mapNotFound(err, id)
}

func (r *customerRemote) ReadAll(ctx context.Context) ([]domain.Customer, error) {
	return r.repo.GetAll(ctx)
}

func (r *customerRemote) Write(ctx context.Context, id string, patch domain.CustomerPatch) error {
	return r.repo.Patch(ctx, id, patch)
}

func (r *customerRemote) Delete(ctx context.Context, id string) error {
	return mapNotFound(r.repo.Delete(ctx, id), id)
}

func mapNotFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: customer %s", ports.ErrRemoteNotFound, id)
	}
	return err
}
