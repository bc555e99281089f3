package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/sandevgo/reportgen/pkg/log"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 5 * time.Second
)

type Reporter interface {
	Handle(ctx context.Context, turn report.Turn) (report.Reply, error)
}

// Invalidator drops the cached company directory after a write.
type Invalidator interface {
	Invalidate()
}

type Server struct {
	reporter  Reporter
	store     core.CompanyStore
	directory Invalidator
	addr      string

	server   *http.Server
	listener net.Listener
}

func NewServer(addr string, reporter Reporter, store core.CompanyStore, directory Invalidator) *Server {
	return &Server{
		reporter:  reporter,
		store:     store,
		directory: directory,
		addr:      addr,
	}
}

// Handler returns the routed API with access logging bound to ctx's logger.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /report-generator", s.handleReport)
	mux.HandleFunc("POST /create-company", s.handleCreateCompany)
	mux.HandleFunc("GET /by-id/{id}", s.handleGetByID)
	mux.HandleFunc("GET /by-name/{name}", s.handleGetByName)
	mux.HandleFunc("GET /all-companies", s.handleAllCompanies)
	mux.HandleFunc("GET /health", s.handleHealth)

	return loggingMiddleware(log.FromCtx(ctx), mux)
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 15 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.FromCtx(ctx).Info().Str("addr", ln.Addr().String()).Msg("starting http server")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.FromCtx(ctx).Error().Err(err).Msg("http server stopped")
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
