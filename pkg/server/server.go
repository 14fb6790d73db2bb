package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/cavaliergopher/grab/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/downloaders"
	"github.com/sirrobot01/porlarr/pkg/service"
	"github.com/sirrobot01/porlarr/pkg/version"
	"io"
	"net/http"
	"os"
	"time"
)

type Server struct {
	router  *chi.Mux
	svc     *service.Service
	fetcher *grab.Client
	logger  zerolog.Logger
}

func New(svc *service.Service) *Server {
	l := logger.New("http")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		router:  r,
		svc:     svc,
		fetcher: downloaders.GetGrabClient(),
		logger:  l,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/version", s.getVersion)
	s.router.Get("/logs", s.getLogs)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Route("/{name}", func(r chi.Router) {
			r.Use(s.clientCtx)
			r.Post("/test", s.testClient)
			r.Get("/status", s.clientStatus)
			r.Get("/items", s.listItems)
			r.Delete("/items/{hash}", s.removeItem)
			r.Post("/magnet", s.addMagnet)
			r.Post("/torrent", s.addTorrent)
			r.Get("/actions/{action}", s.requestAction)
		})
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context, port string) error {
	addr := fmt.Sprintf(":%s", port)
	s.logger.Info().Msgf("Server started on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	request.JSONResponse(w, version.GetInfo(), http.StatusOK)
}

func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	logFile := logger.GetLogPath()
	if logFile == "" {
		http.Error(w, "File logging disabled", http.StatusNotFound)
		return
	}

	file, err := os.Open(logFile)
	if err != nil {
		http.Error(w, "Error reading log file", http.StatusInternalServerError)
		return
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			s.logger.Error().Err(err).Msg("Error closing log file")
		}
	}(file)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline; filename=porlarr.log")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := io.Copy(w, file); err != nil {
		s.logger.Error().Err(err).Msg("Error streaming log file")
	}
}
