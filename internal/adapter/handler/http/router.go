package http

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/usecase"
)

// NetworkGate wraps a handler so it only runs while the enforcer's active
// chain matches the required one. Every other phase answers 503 with the gate
// snapshot, which is this server's equivalent of blocking the application
// behind the full-screen overlay.
func NetworkGate(enforcer *usecase.NetworkEnforcer, h *Handler, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !enforcer.Allowed() {
			h.writeJSON(ctx, fasthttp.StatusServiceUnavailable, enforcer.Status())
			return
		}
		next(ctx)
	}
}

// RegisterRoutes sets up the application routes and the health check. Session
// routes sit behind the network gate; the gate's own routes stay reachable so
// the user can inspect and fix the network state.
func RegisterRoutes(r *router.Router, h *Handler, enforcer *usecase.NetworkEnforcer, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	r.GET("/network/status", h.GetNetworkStatus)
	r.POST("/network/retry", h.RetryNetworkCheck)
	r.POST("/network/switch", h.SwitchNetwork)

	r.POST("/session/login", NetworkGate(enforcer, h, h.Login))
	r.GET("/session/status", NetworkGate(enforcer, h, h.GetSessionStatus))
	r.POST("/session/diagnostics", NetworkGate(enforcer, h, h.RunDiagnostics))

	r.GET("/notifications", h.ListNotifications)
	r.DELETE("/notifications/{id}", h.DismissNotification)

	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})

	logger.Info("All routes registered.")
}
