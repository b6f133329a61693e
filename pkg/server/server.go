// Package server exposes bills, statistics and the notification webhook over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/ledger"
	"github.com/monayhq/monay/pkg/parser"
	"github.com/monayhq/monay/pkg/stats"
)

// Config holds the server collaborators. Ledger, Stats and Parser are required.
type Config struct {
	Ledger *ledger.Ledger
	Stats  *stats.Aggregator
	Parser *parser.Parser
	// Notifications handles POST /api/notifications when set.
	Notifications http.Handler
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
	// Location resolves the default stats period.
	Location *time.Location
	// Now overrides the wall clock in tests.
	Now func() time.Time
}

// Server is the monay HTTP API.
type Server struct {
	ledger        *ledger.Ledger
	stats         *stats.Aggregator
	parser        *parser.Parser
	notifications http.Handler
	gatherer      prometheus.Gatherer
	loc           *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// New creates the server.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		ledger:        cfg.Ledger,
		stats:         cfg.Stats,
		parser:        cfg.Parser,
		notifications: cfg.Notifications,
		gatherer:      cfg.Gatherer,
		loc:           cfg.Location,
		now:           cfg.Now,
		logger:        logger.With("component", "server"),
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/bills", s.handleListBills)
		r.Post("/bills", s.handleAddBill)
		r.Delete("/bills/{id}", s.handleDeleteBill)
		r.Get("/stats", s.handleStats)
		r.Post("/parse", s.handleParse)
		if s.notifications != nil {
			r.Method(http.MethodPost, "/notifications", s.notifications)
		}
	})

	return r
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	bills, err := s.ledger.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bills")
		return
	}
	if bills == nil {
		bills = []api.BillRecord{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var entry ledger.ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bill, err := s.ledger.AddManual(r.Context(), entry)
	switch {
	case errors.Is(err, api.ErrNonPositiveAmount),
		errors.Is(err, api.ErrAmountTooLarge),
		errors.Is(err, api.ErrInvalidDirection),
		errors.Is(err, api.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("adding bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add bill")
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	err = s.ledger.Delete(r.Context(), id)
	switch {
	case errors.Is(err, api.ErrBillNotFound):
		writeError(w, http.StatusNotFound, "bill not found")
		return
	case err != nil:
		s.logger.Error("deleting bill", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete bill")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	period, err := s.periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.stats.Summarize(r.Context(), period)
	if err != nil {
		s.logger.Error("summarizing", "period", period.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// periodFromQuery defaults to the current month; a year without a month
// selects the whole year.
func (s *Server) periodFromQuery(r *http.Request) (stats.Period, error) {
	q := r.URL.Query()
	yearParam, monthParam := q.Get("year"), q.Get("month")
	if yearParam == "" && monthParam == "" {
		return stats.MonthOf(s.now().In(s.loc)), nil
	}

	p := stats.Period{Year: s.now().In(s.loc).Year()}
	if yearParam != "" {
		y, err := strconv.Atoi(yearParam)
		if err != nil {
			return stats.Period{}, errors.New("year must be an integer")
		}
		p.Year = y
	}
	if monthParam != "" {
		m, err := strconv.Atoi(monthParam)
		if err != nil || m < 1 || m > 12 {
			return stats.Period{}, errors.New("month must be between 1 and 12")
		}
		p.Month = time.Month(m)
	}
	if err := p.Validate(); err != nil {
		return stats.Period{}, err
	}
	return p, nil
}

type parseRequest struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.parser.Parse(req.Source, req.Title, req.Body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
