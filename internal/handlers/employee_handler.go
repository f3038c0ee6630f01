package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"loancrm/internal/models"
)

type EmployeeLister interface {
	ListActive(ctx context.Context, orgID int64) ([]*models.Employee, error)
}

type EmployeeHandler struct {
	Repo EmployeeLister
}

func NewEmployeeHandler(repo EmployeeLister) *EmployeeHandler {
	return &EmployeeHandler{Repo: repo}
}

// List godoc
// @Summary  Active employees of the organization, i.e. valid assignees
// @Tags     employees
// @Produce  json
// @Success  200 {array} models.Employee
// @Router   /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	list, err := h.Repo.ListActive(c.Request.Context(), acting.OrganizationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
