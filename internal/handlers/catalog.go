package handlers

import (
	"net/http"

	"facility-planner/internal/catalog"
	"facility-planner/internal/models"

	"github.com/gin-gonic/gin"
)

// CatalogElements lists the element names of the catalog
func (h *Handler) CatalogElements(c *gin.Context) {
	names := catalog.ElementNames(h.store.Catalog())
	c.JSON(http.StatusOK, gin.H{"elements": names, "count": len(names)})
}

// CatalogTypes lists the types of one element name
func (h *Handler) CatalogTypes(c *gin.Context) {
	types := catalog.Types(h.store.Catalog(), c.Param("name"))
	c.JSON(http.StatusOK, gin.H{"types": types, "count": len(types)})
}

// CatalogMaterials lists the materials of one element type
func (h *Handler) CatalogMaterials(c *gin.Context) {
	materials := catalog.Materials(h.store.Catalog(), c.Param("name"), c.Param("type"))
	c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
}

// CatalogCategories returns the category taxonomy
func (h *Handler) CatalogCategories(c *gin.Context) {
	groups := h.categories
	if groups == nil {
		groups = []models.CategoryGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": groups})
}
