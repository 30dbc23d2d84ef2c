package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/taskquery"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/search"
	"github.com/poiesic/taskquery/settings"
)

const maxRequestBody = 64 << 10

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve queries over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port; overrides the settings file",
			},
			&cli.BoolFlag{
				Name:  "no-reload",
				Usage: "Do not reload the settings file when it changes",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if p := c.Int("port"); p != 0 {
		cfg.HTTP.Port = p
	}
	logger := slog.Default()

	engine, err := taskquery.Open(cfg, taskquery.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	if cfg.Vault.Path != "" {
		if _, err := engine.Ingest(c.Context); err != nil {
			logger.Warn("initial ingest failed", "err", err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           newRouter(engine, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(c.Context)

	if !c.Bool("no-reload") && fileExists(c.String("config")) {
		g.Go(func() error {
			return settings.Watch(gCtx, c.String("config"), logger, func(next *settings.Settings) {
				// Flags win over the file for the whole process lifetime.
				next.HTTP.Port = cfg.HTTP.Port
				if err := engine.Reload(next); err != nil {
					logger.Warn("settings reload rejected", "err", err)
				}
			})
		})
	}

	if cfg.Vault.Watch {
		g.Go(func() error {
			return engine.WatchVault(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		// Stops the watchers.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	return nil
}

var errShutdown = errors.New("shutdown")

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func newRouter(engine *taskquery.Engine, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &queryHandler{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", h.Query)
	})
	return r
}

type queryHandler struct {
	engine *taskquery.Engine
	logger *slog.Logger
}

type queryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	Limit int    `json:"limit"`
}

func (h *queryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mode, err := resolveMode(req.Mode, h.engine.Settings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	result, err := h.engine.Search(r.Context(), req.Query, mode, req.Limit)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.Error("query failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse(result))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "err", err)
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg})
}

type queryResponse struct {
	QueryID   string         `json:"query_id"`
	Intent    intentResponse `json:"intent"`
	Tasks     []taskResponse `json:"tasks"`
	Total     int            `json:"total"`
	Scanned   int            `json:"scanned"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

type intentResponse struct {
	Mode            string   `json:"mode"`
	Keywords        []string `json:"keywords"`
	CoreKeywords    []string `json:"core_keywords"`
	Priority        []int    `json:"priority,omitempty"`
	DueDate         string   `json:"due_date,omitempty"`
	DueDateRange    string   `json:"due_date_range,omitempty"`
	Status          []string `json:"status,omitempty"`
	ExcludedStatus  []string `json:"excluded_status,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ExcludedTags    []string `json:"excluded_tags,omitempty"`
	Folder          string   `json:"folder,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Enhanced        bool     `json:"enhanced"`
	EnhancerFailure string   `json:"enhancer_failure,omitempty"`
}

type taskResponse struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Status        string   `json:"status"`
	Priority      int      `json:"priority,omitempty"`
	Due           string   `json:"due,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Path          string   `json:"path"`
	Line          int      `json:"line"`
	Score         float64  `json:"score"`
	Relevance     float64  `json:"relevance"`
	DueScore      float64  `json:"due_score"`
	PriorityScore float64  `json:"priority_score"`
	StatusScore   float64  `json:"status_score"`
}

func newQueryResponse(result *search.Result) queryResponse {
	in := result.Intent
	props := in.Properties
	resp := queryResponse{
		QueryID: result.QueryID,
		Intent: intentResponse{
			Mode:            in.Mode.String(),
			Keywords:        in.Keywords,
			CoreKeywords:    in.CoreKeywords,
			Priority:        props.Priority,
			Status:          props.StatusValues,
			ExcludedStatus:  props.ExcludedStatusValues,
			Tags:            props.Tags,
			ExcludedTags:    props.ExcludedTags,
			Folder:          props.Folder,
			Warnings:        in.Diagnostics.Warnings,
			Enhanced:        in.Diagnostics.Enhanced,
			EnhancerFailure: in.Diagnostics.EnhancerFailure,
		},
		Tasks:     make([]taskResponse, 0, len(result.Tasks)),
		Total:     result.Total,
		Scanned:   result.Scanned,
		ElapsedMS: result.Elapsed.Milliseconds(),
	}
	if props.DueDate != nil {
		resp.Intent.DueDate = props.DueDate.String()
	}
	if props.DueDateRange != nil {
		resp.Intent.DueDateRange = props.DueDateRange.String()
	}
	for _, st := range result.Tasks {
		t := st.Task
		tr := taskResponse{
			ID:            fmt.Sprintf("%016x", uint64(t.Id)),
			Text:          t.Text,
			Status:        t.Status,
			Tags:          t.Tags,
			Path:          t.Path,
			Line:          t.Line,
			Score:         st.FinalScore,
			Relevance:     st.RelevanceScore,
			DueScore:      st.DueDateScore,
			PriorityScore: st.PriorityScore,
			StatusScore:   st.StatusScore,
		}
		if t.HasPriority() {
			tr.Priority = t.Priority
		}
		if t.HasDue() {
			tr.Due = t.Due.Format(core.IsoDateLayout)
		}
		resp.Tasks = append(resp.Tasks, tr)
	}
	return resp
}
