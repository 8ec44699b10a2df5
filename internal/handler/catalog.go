package handler

import "github.com/iliyamo/cinema-catalog/internal/service"

// CatalogHandler serves halls, movies and shows.
type CatalogHandler struct {
	Catalog *service.Catalog
}

// NewCatalogHandler panics if catalog is nil.
func NewCatalogHandler(catalog *service.Catalog) *CatalogHandler {
	if catalog == nil {
		panic("nil catalog passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: catalog}
}
