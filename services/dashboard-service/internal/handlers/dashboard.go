package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/salondesk/salondesk/libs/auth"
	"github.com/salondesk/salondesk/libs/httpx"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
)

type DashboardService interface {
	CommandCenter(ctx context.Context, scope dashboard.Scope, day time.Time) (*dashboard.CommandCenter, error)
	OwnerDashboard(ctx context.Context, scope dashboard.Scope) (*dashboard.OwnerDashboard, error)
}

type DashboardHandler struct {
	svc      DashboardService
	loc      *time.Location
	logger   *slog.Logger
	validate *validator.Validate
}

func NewDashboardHandler(svc DashboardService, loc *time.Location, logger *slog.Logger) *DashboardHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return &DashboardHandler{svc: svc, loc: loc, logger: logger, validate: v}
}

// Register mounts both dashboards behind token verification.
func (h *DashboardHandler) Register(mux *http.ServeMux, jwtSecret string) {
	mux.Handle("/api/v1/dashboard/command-center",
		RequireAuth(RequirePermission(http.HandlerFunc(h.CommandCenter), PermissionDashboardRead), jwtSecret))
	mux.Handle("/api/v1/dashboard/owner",
		RequireAuth(RequireRole(http.HandlerFunc(h.Owner), "owner", "admin"), jwtSecret))
}

type commandCenterQuery struct {
	BranchID string `query:"branchId" validate:"required,uuid"`
	Date     string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ownerQuery struct {
	BranchID string `query:"branchId" validate:"omitempty,uuid"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (h *DashboardHandler) CommandCenter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, httpx.CodeMethod, "method not allowed", nil)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())

	q := commandCenterQuery{
		BranchID: strings.TrimSpace(r.URL.Query().Get("branchId")),
		Date:     strings.TrimSpace(r.URL.Query().Get("date")),
	}
	if !h.valid(w, q) {
		return
	}
	if !claims.CanAccessBranch(q.BranchID) {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "branch not accessible", nil)
		return
	}
	var day time.Time
	if q.Date != "" {
		d, err := dashboard.ParseDay(q.Date, h.loc)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid date", nil)
			return
		}
		day = d
	}

	out, err := h.svc.CommandCenter(r.Context(), dashboard.Scope{TenantID: claims.TenantID, BranchID: q.BranchID}, day)
	if err != nil {
		h.fail(w, r, "command center", err)
		return
	}
	httpx.WriteData(w, http.StatusOK, out)
}

func (h *DashboardHandler) Owner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, httpx.CodeMethod, "method not allowed", nil)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())

	q := ownerQuery{BranchID: strings.TrimSpace(r.URL.Query().Get("branchId"))}
	if !h.valid(w, q) {
		return
	}
	switch {
	case q.BranchID == "" && !claims.TenantWide():
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "tenant-wide view requires access to every branch", nil)
		return
	case q.BranchID != "" && !claims.CanAccessBranch(q.BranchID):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "branch not accessible", nil)
		return
	}

	out, err := h.svc.OwnerDashboard(r.Context(), dashboard.Scope{TenantID: claims.TenantID, BranchID: q.BranchID})
	if err != nil {
		h.fail(w, r, "owner dashboard", err)
		return
	}
	httpx.WriteData(w, http.StatusOK, out)
}

func (h *DashboardHandler) valid(w http.ResponseWriter, q any) bool {
	err := h.validate.Struct(q)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid query", nil)
		return false
	}
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid query parameters", details)
	return false
}

// fail logs the cause and answers with an opaque error; callers cannot tell
// which metric failed.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, dashboard.ErrInvalidScope) {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
		return
	}
	h.logger.Error(what+" failed", "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
	httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "failed to load dashboard", nil)
}
