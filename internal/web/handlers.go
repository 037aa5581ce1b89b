package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/flightdash/internal/charts"
	"github.com/KaramelBytes/flightdash/internal/filter"
	"github.com/KaramelBytes/flightdash/internal/overview"
	"github.com/KaramelBytes/flightdash/internal/render"
	"github.com/KaramelBytes/flightdash/internal/table"
	"github.com/KaramelBytes/flightdash/internal/utils"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		s.log.Error("encode response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	var sue *table.SourceUnavailableError
	var uce *unknownChartError
	switch {
	case errors.As(err, &sue):
		return http.StatusServiceUnavailable
	case errors.As(err, &uce):
		return http.StatusNotFound
	}
	// Contract violations and anything unexpected.
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTable()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview.Build(t, s.opt.PreviewRows))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTable()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, filter.Options(t))
}

func (s *Server) handleChartList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, charts.All())
}

// handleChart answers with HTTP 200 even when the result is a notice; a
// missing column is not a request error.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := charts.Name(r.PathValue("name"))
	sel, err := parseSelection(name, r.URL.Query())
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	res, err := s.compute(name, sel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if !strings.HasSuffix(file, ".png") {
		http.NotFound(w, r)
		return
	}
	name := charts.Name(strings.TrimSuffix(file, ".png"))
	sel, err := parseSelection(name, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.compute(name, sel)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, res, s.opt.Render); err != nil {
		if errors.Is(err, render.ErrNothingToRender) {
			msg := res.Notice
			if msg == "" {
				msg = err.Error()
			}
			http.Error(w, msg, http.StatusUnprocessableEntity)
			return
		}
		s.log.Error("render chart", "chart", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

type pageData struct {
	Title    string
	Overview *overview.Report
	Charts   []charts.Spec
	Choices  filter.Choices
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("render page", "page", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleOverviewPage(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTable()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.renderPage(w, "overview.html", pageData{
		Title:    "Flights: Overview",
		Overview: overview.Build(t, s.opt.PreviewRows),
	})
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTable()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.renderPage(w, "dashboard.html", pageData{
		Title:   "Flights: Dashboard",
		Charts:  charts.All(),
		Choices: filter.Options(t),
	})
}

// parseSelection reads months and days as comma-separated lists and values as
// repeated parameters, since carrier and origin codes may contain commas.
func parseSelection(name charts.Name, q url.Values) (filter.Selection, error) {
	months, err := parseInts(q["months"])
	if err != nil {
		return filter.Selection{}, fmt.Errorf("months: %w", err)
	}
	days, err := parseInts(q["days"])
	if err != nil {
		return filter.Selection{}, fmt.Errorf("days: %w", err)
	}
	var values []string
	for _, v := range q["values"] {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return charts.Lookup(name).Selection(months, days, values), nil
}

func parseInts(params []string) ([]int, error) {
	var parts []string
	for _, s := range params {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
