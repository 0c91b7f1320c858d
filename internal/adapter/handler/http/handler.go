package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/usecase"
)

// Handler exposes the gate, session, and notification operations over HTTP.
// It is the rendering layer's consumption point: it reads state, it does not
// own any of it.
type Handler struct {
	enforcer *usecase.NetworkEnforcer
	session  *usecase.Session
	bus      *usecase.NotificationBus
	logger   *zap.Logger
}

func NewHandler(
	enforcer *usecase.NetworkEnforcer,
	session *usecase.Session,
	bus *usecase.NotificationBus,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		enforcer: enforcer,
		session:  session,
		bus:      bus,
		logger:   logger.Named("Handler"),
	}
}

// GetNetworkStatus returns the current gate snapshot.
func (h *Handler) GetNetworkStatus(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.enforcer.Status())
}

// RetryNetworkCheck triggers a manual re-probe and returns the (transitional)
// snapshot. The probe outlives the request, so it runs on a background
// context rather than the request's.
func (h *Handler) RetryNetworkCheck(ctx *fasthttp.RequestCtx) {
	h.enforcer.Retry(context.Background())
	h.writeJSON(ctx, fasthttp.StatusAccepted, h.enforcer.Status())
}

// SwitchNetwork asks the wallet to move to the required chain.
func (h *Handler) SwitchNetwork(ctx *fasthttp.RequestCtx) {
	if err := h.enforcer.Switch(ctx); err != nil {
		status := fasthttp.StatusBadGateway
		if errors.Is(err, apperrors.ErrProviderMissing) {
			status = fasthttp.StatusServiceUnavailable
		}
		h.writeError(ctx, status, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusAccepted, h.enforcer.Status())
}

// Login bootstraps a chat session for the posted user details.
func (h *Handler) Login(ctx *fasthttp.RequestCtx) {
	var req usecase.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Bad Request: invalid login payload", fasthttp.StatusBadRequest)
		return
	}
	if req.Name == "" {
		ctx.Error("Bad Request: name is required", fasthttp.StatusBadRequest)
		return
	}

	state, err := h.session.Login(ctx, req)
	if err != nil {
		h.logger.Error("Login failed", zap.String("name", req.Name), zap.Error(err))
		status := fasthttp.StatusBadGateway
		if errors.Is(err, apperrors.ErrNoSecretConfigured) {
			status = fasthttp.StatusUnprocessableEntity
		}
		h.writeError(ctx, status, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, state)
}

// GetSessionStatus returns the active session, or 404 before login.
func (h *Handler) GetSessionStatus(ctx *fasthttp.RequestCtx) {
	state := h.session.Current()
	if state == nil {
		ctx.Error("Not Found: no active session", fasthttp.StatusNotFound)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, state)
}

// RunDiagnostics probes backend permissions for the active session user.
func (h *Handler) RunDiagnostics(ctx *fasthttp.RequestCtx) {
	state := h.session.Current()
	if state == nil {
		ctx.Error("Not Found: no active session", fasthttp.StatusNotFound)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, h.session.Diagnostics(ctx, state.User.ID))
}

// ListNotifications returns the currently visible notices.
func (h *Handler) ListNotifications(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.bus.Active())
}

// DismissNotification removes one notice ahead of its TTL.
func (h *Handler) DismissNotification(ctx *fasthttp.RequestCtx) {
	id, ok := ctx.UserValue("id").(string)
	if !ok || id == "" {
		ctx.Error("Bad Request: missing notification id", fasthttp.StatusBadRequest)
		return
	}
	if !h.bus.Dismiss(id) {
		ctx.Error("Not Found", fasthttp.StatusNotFound)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (h *Handler) writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	h.writeJSON(ctx, status, map[string]string{"error": err.Error()})
}
