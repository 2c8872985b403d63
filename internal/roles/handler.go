package roles

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

// Handler manages role administration endpoints.
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

// MountRoutes registers role routes. Deleting a role is reserved for the
// business owner regardless of configured permissions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRoles, shared.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRoles, shared.ActionEdit))
		r.Post("/", h.create)
		r.Patch("/{id}/permissions", h.updatePermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireOwner())
		r.Delete("/{id}", h.delete)
	})
}

type roleResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Permissions rbac.PermissionMap `json:"permissions"`
	IsSuperUser bool               `json:"isSuperUser"`
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required"`
}

type updatePermissionRequest struct {
	Resource string `json:"resource" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Granted  bool   `json:"granted"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	out := make([]roleResponse, len(all))
	for i, role := range all {
		out[i] = toResponse(&role)
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, toResponse(role))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}
	role, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, toResponse(role))
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	var req updatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}
	role, err := h.service.UpdatePermission(r.Context(), id, req.Resource, req.Action, req.Granted)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, toResponse(role))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func toResponse(role *rbac.Role) roleResponse {
	return roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: role.Permissions,
		IsSuperUser: role.IsSuperUser,
	}
}
