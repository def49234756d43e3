package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MikhailRaia/pyth/internal/auth"
	"github.com/MikhailRaia/pyth/internal/config"
	"github.com/MikhailRaia/pyth/internal/generator"
	"github.com/MikhailRaia/pyth/internal/handler"
	"github.com/MikhailRaia/pyth/internal/logger"
	"github.com/MikhailRaia/pyth/internal/middleware"
	"github.com/MikhailRaia/pyth/internal/proto"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	storage    storage.LinkStorage
	handler    http.Handler
	grpcServer *grpc.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	allocatorCfg := generator.DefaultConfig()
	allocatorCfg.MinLength = cfg.TokenLength
	allocatorCfg.Reserved = service.ReservedLinks
	allocator := generator.NewAllocator(store, allocatorCfg)

	var (
		sessions     service.SessionIssuer
		handlerOpts  []handler.Option
		interceptors = []grpc.UnaryServerInterceptor{logger.UnaryServerInterceptor}
	)
	if cfg.SessionSecret != "" {
		jwtService := auth.NewJWTService(cfg.SessionSecret, cfg.SessionTTL)
		sessions = jwtService
		handlerOpts = append(handlerOpts, handler.WithSessions(middleware.NewSessionMiddleware(jwtService)))
		interceptors = append(interceptors, middleware.NewGRPCSessionMiddleware(jwtService).UnaryInterceptor)
	} else {
		log.Warn().Msg("SESSION_SECRET is not set, management sessions are disabled")
	}

	if cfg.TrustProxy {
		handlerOpts = append(handlerOpts, handler.WithTrustedProxy())
	}
	if cfg.RateLimit > 0 {
		handlerOpts = append(handlerOpts, handler.WithRateLimiter(middleware.NewRateLimiter(cfg.RateLimit, int64(cfg.RateBurst))))
	}

	linkService := service.NewLinkService(store, allocator, sessions, cfg.BaseURL)
	httpHandler := handler.NewHandler(linkService, store, cfg.BaseURL, handlerOpts...)

	a := &App{
		config:  cfg,
		storage: store,
		handler: httpHandler.RegisterRoutes(),
	}

	if cfg.GRPCAddress != "" {
		a.grpcServer = grpc.NewServer(
			grpc.ForceServerCodec(proto.Codec{}),
			grpc.ChainUnaryInterceptor(interceptors...),
		)
		proto.RegisterLinkServiceServer(a.grpcServer, handler.NewLinkGRPCServer(linkService))
	}

	return a, nil
}

// Run serves HTTP, and gRPC when configured, until ctx is cancelled or
// a server fails, then shuts both down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	server := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", a.config.ServerAddress).Str("baseURL", a.config.BaseURL).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpcServer != nil {
		listener, err := net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			_ = server.Close()
			return fmt.Errorf("failed to listen on %s: %w", a.config.GRPCAddress, err)
		}

		go func() {
			log.Info().Str("addr", a.config.GRPCAddress).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(listener); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	return runErr
}

// Close releases the storage.
func (a *App) Close() error {
	return a.storage.Close()
}
