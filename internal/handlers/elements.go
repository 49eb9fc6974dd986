package handlers

import (
	"net/http"
	"strings"

	"facility-planner/internal/annotation"
	"facility-planner/internal/defects"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"

	"github.com/gin-gonic/gin"
)

// ListElements returns elements, optionally filtered by space and including archived ones
func (h *Handler) ListElements(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	spaceID := c.Query("space_id")

	elements := make([]models.Element, 0)
	for _, e := range h.store.Elements(includeArchived) {
		if spaceID != "" && e.SpaceID != spaceID {
			continue
		}
		elements = append(elements, e)
	}
	c.JSON(http.StatusOK, gin.H{"elements": elements, "count": len(elements)})
}

// GetElement returns one element
func (h *Handler) GetElement(c *gin.Context) {
	el, err := h.store.Element(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

// CreateElement stores a new element; a client supplied id is kept
func (h *Handler) CreateElement(c *gin.Context) {
	var el models.Element
	if err := c.ShouldBindJSON(&el); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if el.ID != "" {
		if _, err := h.store.Element(el.ID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "element already exists: " + el.ID})
			return
		}
	}
	saved, err := h.store.UpsertElement(el)
	if err != nil {
		respondError(c, err)
		return
	}
	h.indexElement(saved)
	h.respondSaved(c, http.StatusCreated, gin.H{"element": saved})
}

// UpdateElement replaces an element as a whole
func (h *Handler) UpdateElement(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Element(id); err != nil {
		respondError(c, err)
		return
	}
	var el models.Element
	if err := c.ShouldBindJSON(&el); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	el.ID = id
	saved, err := h.store.UpsertElement(el)
	if err != nil {
		respondError(c, err)
		return
	}
	h.indexElement(saved)
	h.respondSaved(c, http.StatusOK, gin.H{"element": saved})
}

// ArchiveElement soft-deletes an element
func (h *Handler) ArchiveElement(c *gin.Context) {
	el, err := h.store.ArchiveElement(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.indexElement(el)
	h.respondSaved(c, http.StatusOK, gin.H{"element": el})
}

// ImportElements appends a JSON array of elements, coercing missing and duplicate ids
func (h *Handler) ImportElements(c *gin.Context) {
	var batch []models.Element
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.store.ImportElements(batch)
	for _, el := range result.Imported {
		h.indexElement(el)
	}
	h.respondSaved(c, http.StatusOK, gin.H{
		"imported": result.Imported,
		"renamed":  result.Renamed,
		"rejected": result.Rejected,
		"count":    len(result.Imported),
	})
}

// Save persists the working copy on demand
func (h *Handler) Save(c *gin.Context) {
	h.respondSaved(c, http.StatusOK, gin.H{"elements": len(h.store.Elements(true))})
}

// AvailableDefects lists the selectable defects for the element's classification
func (h *Handler) AvailableDefects(c *gin.Context) {
	available, err := h.store.AvailableDefects(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

type toggleRequest struct {
	Severity models.Severity `json:"severity" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Selected bool            `json:"selected"`
}

// ToggleDefect selects or deselects one defect
func (h *Handler) ToggleDefect(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editDefects(c, func(s *defects.Session) error {
		return s.Toggle(req.Severity, req.Name, req.Selected)
	})
}

type selectAllRequest struct {
	Severity models.Severity `json:"severity" binding:"required"`
	Names    []string        `json:"names"`
}

// SelectAllDefects selects the given names, or every available name of the severity when none are given
func (h *Handler) SelectAllDefects(c *gin.Context) {
	var req selectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editDefects(c, func(s *defects.Session) error {
		names := req.Names
		if len(names) == 0 {
			names = s.Available().Names(req.Severity)
		}
		return s.SelectAll(req.Severity, names)
	})
}

type customDefectRequest struct {
	Severity models.Severity `json:"severity" binding:"required"`
	Name     string          `json:"name"`
}

// AddCustomDefect adds a user-entered defect to the pool of the element's type and selects it
func (h *Handler) AddCustomDefect(c *gin.Context) {
	var req customDefectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editDefects(c, func(s *defects.Session) error {
		return s.AddCustomDefect(req.Severity, req.Name)
	})
}

type classificationRequest struct {
	Name           *string `json:"name"`
	Type           *string `json:"type"`
	Material       *string `json:"material"`
	CustomMaterial string  `json:"custom_material"`
}

// UpdateClassification changes name, type and material in that order, applying the reset cascade
func (h *Handler) UpdateClassification(c *gin.Context) {
	var req classificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editDefects(c, func(s *defects.Session) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return registry.ErrElementNameRequired
			}
			s.SetName(name)
		}
		if req.Type != nil {
			s.SetType(strings.TrimSpace(*req.Type))
		}
		if req.Material != nil {
			return s.SetMaterial(strings.TrimSpace(*req.Material), req.CustomMaterial)
		}
		return nil
	})
}

func (h *Handler) editDefects(c *gin.Context, fn func(*defects.Session) error) {
	id := c.Param("id")
	el, err := h.store.EditDefects(id, fn)
	if err != nil {
		respondError(c, err)
		return
	}
	available, err := h.store.AvailableDefects(id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.indexElement(el)
	h.respondSaved(c, http.StatusOK, gin.H{"element": el, "available": available})
}

// ElementTasks lists the tasks planned on one element
func (h *Handler) ElementTasks(c *gin.Context) {
	tasks, err := h.store.Tasks(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// AppendAnnotation adds a rectangle to the element's overlay
func (h *Handler) AppendAnnotation(c *gin.Context) {
	var rect models.Rect
	if err := c.ShouldBindJSON(&rect); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editAnnotations(c, func(o *annotation.Overlay) error {
		return o.Append(rect)
	})
}

// UndoAnnotation removes the most recent rectangle
func (h *Handler) UndoAnnotation(c *gin.Context) {
	h.editAnnotations(c, func(o *annotation.Overlay) error {
		o.Undo()
		return nil
	})
}

// ClearAnnotations removes every rectangle
func (h *Handler) ClearAnnotations(c *gin.Context) {
	h.editAnnotations(c, func(o *annotation.Overlay) error {
		o.Clear()
		return nil
	})
}

func (h *Handler) editAnnotations(c *gin.Context, fn func(*annotation.Overlay) error) {
	el, err := h.store.EditAnnotations(c.Param("id"), fn)
	if err != nil {
		respondError(c, err)
		return
	}
	annotations := el.Annotations
	if annotations == nil {
		annotations = []models.Rect{}
	}
	h.respondSaved(c, http.StatusOK, gin.H{"element_id": el.ID, "annotations": annotations})
}

// ListSpaces returns all spaces
func (h *Handler) ListSpaces(c *gin.Context) {
	spaces := h.store.Spaces()
	c.JSON(http.StatusOK, gin.H{"spaces": spaces, "count": len(spaces)})
}

// GetSpace returns one space with the elements placed in it
func (h *Handler) GetSpace(c *gin.Context) {
	sp, err := h.store.Space(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"space": sp, "elements": h.store.ElementsInSpace(sp.ID)})
}

// UpsertSpace creates or updates a space
func (h *Handler) UpsertSpace(c *gin.Context) {
	var sp models.Space
	if err := c.ShouldBindJSON(&sp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.store.UpsertSpace(sp)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, http.StatusOK, gin.H{"space": saved})
}
