package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loancrm/internal/services"
)

type VerifyHandler struct {
	Service      *services.VerificationService
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewVerifyHandler(s *services.VerificationService, pollInterval, pollTimeout time.Duration) *VerifyHandler {
	return &VerifyHandler{Service: s, PollInterval: pollInterval, PollTimeout: pollTimeout}
}

// Send godoc
// @Summary  Send a verification code to the lead's phone
// @Tags     verification
// @Produce  json
// @Param    id path int true "lead id"
// @Success  202 {object} models.PhoneVerification
// @Failure  429 {object} map[string]interface{}
// @Router   /leads/{id}/verification [post]
func (h *VerifyHandler) Send(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.Service.Send(c.Request.Context(), acting, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, v)
}

// Confirm godoc
// @Summary  Confirm the code received by the lead
// @Tags     verification
// @Accept   json
// @Produce  json
// @Param    id path int true "lead id"
// @Success  200 {object} map[string]interface{}
// @Router   /leads/{id}/verification/confirm [post]
func (h *VerifyHandler) Confirm(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Confirm(c.Request.Context(), acting, id, req.Code); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified"})
}

// Status godoc
// @Summary  Verification state; with wait=true blocks until it is terminal or times out
// @Tags     verification
// @Produce  json
// @Param    id path int true "lead id"
// @Param    wait query bool false "poll until terminal"
// @Success  200 {object} models.PhoneVerification
// @Router   /leads/{id}/verification [get]
func (h *VerifyHandler) Status(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if c.Query("wait") != "true" {
		v, err := h.Service.Status(c.Request.Context(), acting, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.PollTimeout)
	defer cancel()
	v, err := h.Service.Poll(ctx, acting, id, h.PollInterval)
	if err != nil {
		if v != nil && ctx.Err() != nil {
			// still pending when the wait ran out
			c.JSON(http.StatusOK, v)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
