package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fortifund/fortifund-api/internal/services"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// AdminServiceInterface provides the dashboard counts
type AdminServiceInterface interface {
	GetStats(ctx context.Context) (*services.DashboardStats, error)
}

// AdminHandler serves the admin dashboard
type AdminHandler struct {
	service AdminServiceInterface
	now     func() time.Time
}

func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service, now: time.Now}
}

// DashboardStatsResponse is the dashboard counts stamped with the time they were read
type DashboardStatsResponse struct {
	*services.DashboardStats
	GeneratedAt string `json:"generated_at"`
}

// GetDashboardStats returns user, entry and category counts. Never cached.
// @Router /admin/dashboard/stats [get]
func (h *AdminHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve dashboard stats")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	pkghttp.WriteJSON(w, r, http.StatusOK, DashboardStatsResponse{
		DashboardStats: stats,
		GeneratedAt:    h.now().UTC().Format(time.RFC3339),
	})
}
