package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/alejandrodnm/resetpoint/internal/application/analysis"
	"github.com/alejandrodnm/resetpoint/internal/ports"
)

// Config contiene la configuración del servidor HTTP.
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8000",
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 10 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
	}
}

// Server expone el servicio de análisis y el de voz.
type Server struct {
	cfg      Config
	router   *mux.Router
	server   *http.Server
	analysis *analysis.Service
	speaker  ports.Speaker // nil = voz no disponible
	metrics  *Metrics
	started  time.Time
}

// NewServer arma el router con middleware y rutas.
func NewServer(cfg Config, svc *analysis.Service, speaker ports.Speaker, metrics *Metrics) *Server {
	def := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		analysis: svc,
		speaker:  speaker,
		metrics:  metrics,
		started:  time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(loggingMiddleware(s.metrics))
	s.router.Use(corsMiddleware(s.cfg.AllowedOrigins))

	s.router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/speak", s.handleSpeak).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
}

// Handler expone el router (tests con httptest).
func (s *Server) Handler() http.Handler { return s.router }

// Run escucha hasta que el contexto se cancele y luego hace shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("httpapi.Run: listen %s: %w", s.cfg.Addr, err)
	}
	slog.Info("http server starting", "addr", ln.Addr().String(), "origins", s.cfg.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpapi.Run: serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.Run: shutdown: %w", err)
	}
	return nil
}
