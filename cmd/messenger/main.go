package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/adapter/chatbackend"
	httphandler "github.com/AleksandrWhite-T/SecureMessenger/internal/adapter/handler/http"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/adapter/walletrpc"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/logger"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/usecase"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	zapLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer zapLogger.Sync() // Ensure logs are flushed before exiting
	zapLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	// --- Dependency Injection (Manual) ---
	zapLogger.Info("Initializing dependencies...")

	// Adapters
	provider := walletrpc.NewProvider(cfg.Provider, zapLogger)
	source := service.StaticProviderSource{P: provider}
	backend := chatbackend.NewClient(cfg.Backend, zapLogger)

	// Use Cases
	bus := usecase.NewNotificationBus(cfg.Notifier, entity.PolygonMainnet, zapLogger)
	issuer := usecase.NewTokenIssuer(cfg.Token.Secret, zapLogger)
	channels := usecase.NewChannelAcquirer(backend, zapLogger)
	session := usecase.NewSession(issuer, backend, channels, bus, zapLogger)
	enforcer := usecase.NewNetworkEnforcer(source, entity.PolygonMainnet, cfg.Provider, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enforcer.Start(ctx)
	defer enforcer.Stop()

	// --- HTTP Router & Server ---
	zapLogger.Info("Setting up HTTP router...")
	r := router.New()
	handler := httphandler.NewHandler(enforcer, session, bus, zapLogger)
	httphandler.RegisterRoutes(r, handler, enforcer, zapLogger)

	// Middleware (request logging)
	loggingMiddleware := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			zapLogger.Info("Request received",
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("uri", ctx.RequestURI()))
			next(ctx)
		}
	}

	serverAddr := ":" + cfg.Server.Port
	server := &fasthttp.Server{Handler: loggingMiddleware(r.Handler)}

	go func() {
		<-ctx.Done()
		zapLogger.Info("Shutting down...")
		if err := server.Shutdown(); err != nil {
			zapLogger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr))
	if err := server.ListenAndServe(serverAddr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
