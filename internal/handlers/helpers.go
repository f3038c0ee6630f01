package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"loancrm/internal/middleware"
	"loancrm/internal/models"
	"loancrm/internal/repositories"
	"loancrm/internal/services"
)

func actingFromCtx(c *gin.Context) (models.ActingContext, bool) {
	v, ok := c.Get(middleware.ActingKey)
	if !ok {
		return models.ActingContext{}, false
	}
	acting, ok := v.(models.ActingContext)
	return acting, ok
}

// mustActing writes 401 and returns false when no acting context was set.
func mustActing(c *gin.Context) (models.ActingContext, bool) {
	acting, ok := actingFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return acting, ok
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}
	return size, (page - 1) * size
}

// trackKeyFromQuery accepts ?key=track***lead or ?track_number=&lead_id=.
func trackKeyFromQuery(c *gin.Context) (models.TrackKey, error) {
	if raw := c.Query("key"); raw != "" {
		return models.ParseTrackKey(raw)
	}
	id, err := strconv.ParseInt(c.Query("lead_id"), 10, 64)
	if err != nil {
		return models.TrackKey{}, models.ErrInvalidTrackKey
	}
	key := models.TrackKey{TrackNumber: c.Query("track_number"), LeadID: id}
	if !key.Valid() {
		return models.TrackKey{}, models.ErrInvalidTrackKey
	}
	return key, nil
}

// writeError maps engine errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		ae *services.AssignmentError
		ce *services.ConversionError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error(), "kind": ve.Kind}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.As(err, &ae):
		status := http.StatusConflict
		switch ae.Kind {
		case services.Unauthorized:
			status = http.StatusForbidden
		case services.IneligibleAssignee:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": ae.Error(), "kind": ae.Kind})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Error(), "kind": ce.Kind})
	case errors.Is(err, repositories.ErrAlreadyConverted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrStaleLead):
		c.JSON(http.StatusConflict, gin.H{"error": "lead was changed by someone else, reload and retry"})
	case errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrEmployeeNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrNoVerification),
		errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrResendThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many codes sent, try again later"})
	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code expired, please resend"})
	case errors.Is(err, services.ErrTooManyAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, please resend"})
	case errors.Is(err, services.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, services.ErrPhoneMissing), errors.Is(err, models.ErrInvalidTrackKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
