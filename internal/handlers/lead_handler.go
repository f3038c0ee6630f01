package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"loancrm/internal/models"
	"loancrm/internal/services"
)

type LeadHandler struct {
	Service *services.LeadService
}

func NewLeadHandler(service *services.LeadService) *LeadHandler {
	return &LeadHandler{Service: service}
}

type createLeadRequest struct {
	Name            string     `json:"name" binding:"required"`
	Phone           string     `json:"phone" binding:"required"`
	Email           string     `json:"email"`
	AppointmentDate *time.Time `json:"appointment_date"`
	Notes           string     `json:"notes"`
}

// Create godoc
// @Summary  Create a lead in the unassigned pool
// @Tags     leads
// @Accept   json
// @Produce  json
// @Param    body body createLeadRequest true "lead"
// @Success  201 {object} models.LeadRecord
// @Router   /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead := &models.LeadRecord{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		AppointmentDate: req.AppointmentDate,
		Notes:           req.Notes,
	}
	if err := h.Service.Create(c.Request.Context(), acting, lead); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// GetByTrack godoc
// @Summary  Load a lead by its track key
// @Tags     leads
// @Produce  json
// @Param    key query string false "track***lead"
// @Param    track_number query string false "track number"
// @Param    lead_id query int false "lead id"
// @Success  200 {object} models.LeadRecord
// @Router   /leads/track [get]
func (h *LeadHandler) GetByTrack(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	key, err := trackKeyFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	lead, err := h.Service.GetByTrack(c.Request.Context(), acting, key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": lead, "next_statuses": services.NextStatuses(lead.Status)})
}

type transitionRequest struct {
	Key         string `json:"key"`
	TrackNumber string `json:"track_number"`
	LeadID      int64  `json:"lead_id"`
	models.TransitionRequest
}

// Transition godoc
// @Summary  Save a follow-up and move the lead to a new status
// @Tags     leads
// @Accept   json
// @Produce  json
// @Param    body body transitionRequest true "follow-up"
// @Success  200 {object} services.TransitionResult
// @Failure  422 {object} map[string]interface{}
// @Router   /leads/track/status [post]
func (h *LeadHandler) Transition(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := models.TrackKey{TrackNumber: req.TrackNumber, LeadID: req.LeadID}
	if req.Key != "" {
		parsed, err := models.ParseTrackKey(req.Key)
		if err != nil {
			writeError(c, err)
			return
		}
		key = parsed
	}
	if !key.Valid() {
		writeError(c, models.ErrInvalidTrackKey)
		return
	}

	res, err := h.Service.Transition(c.Request.Context(), acting, key, req.TransitionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unassigned godoc
// @Summary  List the unassigned pool
// @Tags     leads
// @Produce  json
// @Param    page query int false "page"
// @Param    size query int false "page size"
// @Success  200 {array} models.LeadRecord
// @Router   /leads/unassigned [get]
func (h *LeadHandler) Unassigned(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	leads, err := h.Service.ListUnassigned(c.Request.Context(), acting, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// Assigned godoc
// @Summary  List leads assigned to the caller (admins may pass employee_id)
// @Tags     leads
// @Produce  json
// @Param    employee_id query int false "employee"
// @Success  200 {array} models.LeadRecord
// @Router   /leads/assigned [get]
func (h *LeadHandler) Assigned(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	employeeID, _ := strconv.ParseInt(c.DefaultQuery("employee_id", "0"), 10, 64)
	limit, offset := pagination(c)
	leads, err := h.Service.ListAssigned(c.Request.Context(), acting, employeeID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// History godoc
// @Summary  Follow-up history of a lead
// @Tags     leads
// @Produce  json
// @Param    key query string false "track***lead"
// @Success  200 {array} models.LeadHistory
// @Router   /leads/track/history [get]
func (h *LeadHandler) History(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	key, err := trackKeyFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	items, err := h.Service.ListHistory(c.Request.Context(), acting, key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Claim godoc
// @Summary  Claim an unassigned lead (admins may claim for someone else)
// @Tags     assignment
// @Accept   json
// @Produce  json
// @Param    id path int true "lead id"
// @Success  200 {object} models.LeadRecord
// @Failure  409 {object} map[string]interface{}
// @Router   /leads/{id}/claim [post]
func (h *LeadHandler) Claim(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssigneeID int64 `json:"assignee_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.AssigneeID == 0 {
		req.AssigneeID = acting.UserID
	}
	lead, err := h.Service.Claim(c.Request.Context(), acting, id, req.AssigneeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Reassign godoc
// @Summary  Move an assigned lead to another employee (admin)
// @Tags     assignment
// @Accept   json
// @Produce  json
// @Param    id path int true "lead id"
// @Success  200 {object} models.LeadRecord
// @Router   /leads/{id}/reassign [post]
func (h *LeadHandler) Reassign(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		FromID int64 `json:"from_id" binding:"required"`
		ToID   int64 `json:"to_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := h.Service.Reassign(c.Request.Context(), acting, id, req.FromID, req.ToID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Convert godoc
// @Summary  Convert a disbursed lead into a customer
// @Tags     conversion
// @Produce  json
// @Param    id path int true "lead id"
// @Success  201 {object} models.Customer
// @Failure  409 {object} map[string]interface{}
// @Router   /leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := h.Service.Convert(c.Request.Context(), acting, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// Customer godoc
// @Summary  Customer created from a lead
// @Tags     conversion
// @Produce  json
// @Param    id path int true "lead id"
// @Success  200 {object} models.Customer
// @Router   /leads/{id}/customer [get]
func (h *LeadHandler) Customer(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := h.Service.Customer(c.Request.Context(), acting, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
