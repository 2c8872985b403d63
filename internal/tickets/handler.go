package tickets

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

// Handler manages repair ticket endpoints.
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

// MountRoutes registers ticket routes. Hard delete is owner-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceTickets, shared.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceTickets, shared.ActionEdit))
		r.Post("/", h.create)
		r.Patch("/{id}/status", h.updateStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireOwner())
		r.Delete("/{id}", h.delete)
	})
}

type createTicketRequest struct {
	CustomerName string `json:"customerName" validate:"required"`
	Device       string `json:"device" validate:"required"`
	Issue        string `json:"issue"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, all)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	ticket, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, ticket)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Error(w, h.logger, apperr.Unauthenticated(""))
		return
	}
	ticket, err := h.service.Create(r.Context(), req.CustomerName, req.Device, req.Issue, identity.SubjectID)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, ticket)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("id"))
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}
	ticket, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, ticket)
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
