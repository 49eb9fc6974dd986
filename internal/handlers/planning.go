package handlers

import (
	"bytes"
	"net/http"
	"time"

	"facility-planner/internal/export"
	"facility-planner/internal/models"
	"facility-planner/internal/planner"

	"github.com/gin-gonic/gin"
)

type groupRequest struct {
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	GroupDate          string             `json:"group_date"`
	Cost               float64            `json:"cost"`
	AssignIndividually bool               `json:"assign_prices_individually"`
	IndividualCosts    map[string]float64 `json:"individual_costs"`
	IndividualDates    map[string]string  `json:"individual_dates"`
	ElementIDs         []string           `json:"element_ids"`
}

func (r groupRequest) toInput(loc *time.Location) (planner.GroupInput, error) {
	date, err := parseDate(r.GroupDate, loc)
	if err != nil {
		return planner.GroupInput{}, err
	}
	in := planner.GroupInput{
		Name:               r.Name,
		Description:        r.Description,
		GroupDate:          date,
		Cost:               r.Cost,
		AssignIndividually: r.AssignIndividually,
		IndividualCosts:    r.IndividualCosts,
		ElementIDs:         r.ElementIDs,
	}
	if len(r.IndividualDates) > 0 {
		in.IndividualDates = make(map[string]time.Time, len(r.IndividualDates))
		for id, s := range r.IndividualDates {
			d, err := parseDate(s, loc)
			if err != nil {
				return planner.GroupInput{}, err
			}
			in.IndividualDates[id] = d
		}
	}
	return in, nil
}

// ListTaskGroups returns all task groups
func (h *Handler) ListTaskGroups(c *gin.Context) {
	groups := h.store.Groups()
	c.JSON(http.StatusOK, gin.H{"task_groups": groups, "count": len(groups)})
}

// GetTaskGroup returns one task group
func (h *Handler) GetTaskGroup(c *gin.Context) {
	g, err := h.store.Group(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// CreateTaskGroup plans one task per selected element
func (h *Handler) CreateTaskGroup(c *gin.Context) {
	in, ok := h.bindGroup(c)
	if !ok {
		return
	}
	g, err := h.store.CreateTaskGroup(in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.reindexMembers(g.Subtasks)
	h.respondSaved(c, http.StatusCreated, gin.H{"task_group": g})
}

// UpdateTaskGroup rewrites a group and its linked tasks
func (h *Handler) UpdateTaskGroup(c *gin.Context) {
	in, ok := h.bindGroup(c)
	if !ok {
		return
	}
	g, err := h.store.UpdateTaskGroup(c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.reindexMembers(g.Subtasks)
	h.respondSaved(c, http.StatusOK, gin.H{"task_group": g})
}

// DeleteTaskGroup removes a group; its tasks stay on the elements, unlinked
func (h *Handler) DeleteTaskGroup(c *gin.Context) {
	id := c.Param("id")
	h.store.DeleteTaskGroup(id)
	h.respondSaved(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) bindGroup(c *gin.Context) (planner.GroupInput, bool) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return planner.GroupInput{}, false
	}
	in, err := req.toInput(h.loc)
	if err != nil {
		respondError(c, err)
		return planner.GroupInput{}, false
	}
	return in, true
}

func (h *Handler) reindexMembers(subtasks []models.Subtask) {
	if h.search == nil {
		return
	}
	for _, st := range subtasks {
		if el, err := h.store.Element(st.ElementID); err == nil {
			h.indexElement(el)
		}
	}
}

// Timeline returns the task groups bucketed by year
func (h *Handler) Timeline(c *gin.Context) {
	entries := h.store.Timeline()
	var total float64
	for _, e := range entries {
		total += e.TotalCost
	}
	c.JSON(http.StatusOK, gin.H{"years": entries, "total_cost": total})
}

// ExportTimelineXLSX downloads the timeline as a spreadsheet
func (h *Handler) ExportTimelineXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := export.WriteTimelineXLSX(&buf, h.store.Timeline()); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timeline.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportTimelinePDF downloads the timeline as a PDF report
func (h *Handler) ExportTimelinePDF(c *gin.Context) {
	title := c.DefaultQuery("title", "Maintenance timeline")
	var buf bytes.Buffer
	if err := export.WriteTimelinePDF(&buf, title, h.store.Timeline(), time.Now().In(h.loc)); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timeline.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// DueInspections lists elements whose inspection interval has elapsed
func (h *Handler) DueInspections(c *gin.Context) {
	due := h.store.DueInspections(time.Now().In(h.loc))
	c.JSON(http.StatusOK, gin.H{"due": due, "count": len(due)})
}
