package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// Handler wires HTTP endpoints for login, refresh and logout.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type profileResponse struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	RoleID  *int64 `json:"roleId"`
	IsOwner bool   `json:"isOwner"`
}

type tokenResponse struct {
	Token        string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Employee     *profileResponse `json:"employee,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}

	subject, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	pair, err := h.service.IssueTokenPair(r.Context(), subject.ID, subject.RoleID)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, tokenResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		Employee: &profileResponse{
			ID:      subject.ID,
			Email:   subject.Email,
			Name:    subject.Name,
			RoleID:  subject.RoleID,
			IsOwner: subject.IsOwner,
		},
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, h.logger, apperr.Validation(err.Error()))
		return
	}

	pair, err := h.service.RefreshTokenPair(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, tokenResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.logger, apperr.MalformedArgument("body"))
		return
	}
	if req.RefreshToken != "" {
		if err := h.service.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
			httpx.Error(w, h.logger, err)
			return
		}
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		h.logger.Info("logout", slog.Int64("subject_id", identity.SubjectID))
	}
	httpx.OK(w, http.StatusOK, nil)
}
