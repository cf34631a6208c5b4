package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

type CatalogHandler struct {
	catalog domain.Catalog
}

func NewCatalogHandler(catalog domain.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get returns the services, packages and add-ons on offer.
//
// @Summary      Service catalog
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  domain.Catalog
// @Router       /catalog [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog)
}
