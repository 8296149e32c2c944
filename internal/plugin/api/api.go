package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/haveachin/slping/internal/app/monitor"
	"github.com/haveachin/slping/pkg/slping/config"
)

// Monitor is the part of monitor.Monitor the API serves.
type Monitor interface {
	Statuses() []monitor.Status
	Status(id monitor.TargetID) (monitor.Status, bool)
	Poll(ctx context.Context, id monitor.TargetID) (monitor.Status, error)
}

type Server struct {
	Config  config.APIConfig
	Monitor Monitor
	Logger  *zap.Logger
}

// ListenAndServe serves the API until ctx is done.
func (s Server) ListenAndServe(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	srv := http.Server{
		Handler:           s.Router(),
		Addr:              s.Config.Bind,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.Logger.Info("started api server",
		zap.String("bind", s.Config.Bind),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

//	@title			slping API
//	@version		1.0
//	@description	Latest status of every monitored Minecraft server.

//	@BasePath	/v1
func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: false,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/targets", func(r chi.Router) {
		r.Get("/", getTargetsHandler(s.Monitor))
		r.Route("/{targetID}", func(r chi.Router) {
			r.Get("/", getTargetHandler(s.Monitor))
			r.Post("/ping", pingTargetHandler(s.Monitor))
			r.Get("/favicon.png", getFaviconHandler(s.Monitor))
		})
	})
	return r
}
