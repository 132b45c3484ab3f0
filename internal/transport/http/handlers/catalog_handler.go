package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(h.catalog)
}
