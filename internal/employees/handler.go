package employees

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-pos/fixpoint/internal/rbac"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// Handler manages employee administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceEmployees, shared.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceEmployees, shared.ActionEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
}

type employeeResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleID   *int64 `json:"roleId"`
	IsOwner  bool   `json:"isOwner"`
	IsActive bool   `json:"isActive"`
}

type createEmployeeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   *int64 `json:"roleId"`
}

type updateEmployeeRequest struct {
	RoleID   *int64 `json:"roleId"`
	IsActive bool   `json:"isActive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	emps, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	out := make([]employeeResponse, len(emps))
	for i, emp := range emps {
		out[i] = toResponse(&emp)
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, toResponse(emp))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}
	emp, err := h.service.Create(r.Context(), req.Email, req.Name, req.Password, req.RoleID)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, toResponse(emp))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	var req updateEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	emp, err := h.service.Update(r.Context(), id, req.RoleID, req.IsActive)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, toResponse(emp))
}

func toResponse(emp *Employee) employeeResponse {
	return employeeResponse{
		ID:       emp.ID,
		Email:    emp.Email,
		Name:     emp.Name,
		RoleID:   emp.RoleID,
		IsOwner:  emp.IsOwner,
		IsActive: emp.IsActive,
	}
}
