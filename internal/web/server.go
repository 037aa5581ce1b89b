// Package web serves the overview and dashboard pages plus the JSON, PNG and
// websocket endpoints behind them.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/KaramelBytes/flightdash/internal/charts"
	"github.com/KaramelBytes/flightdash/internal/filter"
	"github.com/KaramelBytes/flightdash/internal/render"
	"github.com/KaramelBytes/flightdash/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	DataPath    string
	PreviewRows int
	Render      render.Options
}

// Server answers dashboard requests from a shared table cache.
type Server struct {
	cache    *table.Cache
	opt      Options
	log      *slog.Logger
	pages    *template.Template
	upgrader websocket.Upgrader
}

// New checks that the data file loads before returning; a missing file is
// fatal for the whole dashboard.
func New(cache *table.Cache, opt Options, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := cache.Load(opt.DataPath); err != nil {
		return nil, err
	}
	pages, err := template.New("").Funcs(template.FuncMap{
		"pct":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"inc":   func(i int) int { return i + 1 },
		"choicesFor": func(c filter.Choices, col string) []string {
			switch col {
			case table.ColCarrier:
				return c.Carriers
			case table.ColOrigin:
				return c.Origins
			}
			return nil
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		cache: cache,
		opt:   opt,
		log:   log,
		pages: pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleOverviewPage)
	mux.HandleFunc("GET /dashboard", s.handleDashboardPage)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/charts", s.handleChartList)
	mux.HandleFunc("GET /api/charts/{name}", s.handleChart)
	mux.HandleFunc("GET /charts/{file}", s.handleChartPNG)
	mux.HandleFunc("GET /ws", s.handleRerun)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", addr, "data", s.opt.DataPath)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery, "took", time.Since(start))
	})
}

// loadTable returns the cached table. Only the first call per path reads disk.
func (s *Server) loadTable() (*table.Table, error) {
	return s.cache.Load(s.opt.DataPath)
}

// compute loads, filters and aggregates one chart.
func (s *Server) compute(name charts.Name, sel filter.Selection) (charts.Result, error) {
	if charts.Lookup(name).Compute == nil {
		return charts.Result{}, &unknownChartError{Name: name}
	}
	t, err := s.loadTable()
	if err != nil {
		return charts.Result{}, err
	}
	view, err := filter.Apply(t, sel)
	if err != nil {
		return charts.Result{}, err
	}
	return charts.Compute(name, view)
}

type unknownChartError struct {
	Name charts.Name
}

func (e *unknownChartError) Error() string {
	return fmt.Sprintf("unknown chart %q", e.Name)
}
