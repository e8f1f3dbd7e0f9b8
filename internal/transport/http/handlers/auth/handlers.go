package authhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"timebank/internal/domain/audit"
	"timebank/internal/domain/auth"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Audit   *audit.Service
}

func NewHandler(service *auth.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	if payload.Username != "" && auth.ValidateUsername(payload.Username) != nil {
		validator.Add("username", "must be 3-32 characters of letters, digits, '.', '_' or '-'")
	}
	if payload.Password != "" && len(payload.Password) < 8 {
		validator.Add("password", "must be at least 8 characters")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	session, err := h.Service.Register(r.Context(), payload.Username, payload.Password, payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			api.Fail(w, http.StatusConflict, "username_taken", "username already taken", middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			slog.Warn("register failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to create account", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), session.User.ID, "auth.register", "user", session.User.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, session.User); err != nil {
		slog.Warn("audit auth.register failed", "err", err)
	}
	api.Created(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	me, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "account no longer exists", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("load current user failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "user_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}
