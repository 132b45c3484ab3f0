package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/progress"
	"github.com/spincycle/backend/internal/domain"
)

type progressOptions struct {
	showTasks   bool
	visibleOnly bool
}

// NewProgressCommand reports progress for a customer exported as JSON, for
// example the body of GET /api/v1/customers/:id. "-" reads stdin.
func NewProgressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &progressOptions{}
	cmd := &cobra.Command{
		Use:   "progress <customer.json>",
		Short: "Compute onboarding progress for an exported customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			report, err := buildProgress(rootOpts, opts, args[0], cmd.InOrStdin())
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(report, func(w io.Writer) error {
				return RenderProgress(w, report, opts.showTasks)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.showTasks, "tasks", false, "list tasks under each stage")
	cmd.Flags().BoolVar(&opts.visibleOnly, "customer-visible", false, "hide internal tasks")
	return cmd
}

func buildProgress(rootOpts *RootOptions, opts *progressOptions, path string, stdin io.Reader) (progress.Report, error) {
	cat, err := catalog.Load(rootOpts.CatalogPath)
	if err != nil {
		return progress.Report{}, err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return progress.Report{}, fmt.Errorf("read customer: %w", err)
	}

	var customer domain.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return progress.Report{}, fmt.Errorf("parse customer: %w", err)
	}

	return progress.Build(cat, customer.TaskStatuses, customer.TaskMetadata, progress.ReportOptions{
		CustomerVisibleOnly: opts.visibleOnly,
	}), nil
}
