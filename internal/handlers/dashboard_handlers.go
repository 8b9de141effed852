package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"invoicely/internal/analytics"
	"invoicely/internal/common"
)

// DashboardHandlers serves the aggregated reporting endpoint.
type DashboardHandlers struct {
	analyticsSvc *analytics.Service
}

func NewDashboardHandlers(analyticsSvc *analytics.Service) *DashboardHandlers {
	return &DashboardHandlers{analyticsSvc: analyticsSvc}
}

// GetStats handles GET /dashboard/stats.
func (h *DashboardHandlers) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	stats, err := h.analyticsSvc.Dashboard(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to compute dashboard stats")
	}
	return c.JSON(http.StatusOK, stats)
}
