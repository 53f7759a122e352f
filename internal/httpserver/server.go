// internal/httpserver/server.go
//
// HTTP server wiring for the cubes API.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: POST /games/parse, GET /games, GET /games/{id}.
//   - Batch check: POST /check (nothing persisted).
//   - Run history: GET /runs, GET /runs/{id}; POST /runs requires a bearer token.
//
// Notes:
//   - Parse failures answer 422 with the error kind and byte offset so clients
//     can point at the offending character.
//   - Limits default to the configured bag and may be overridden per request.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cubes/internal/config"
	"github.com/robalobadob/cubes/internal/game"
	"github.com/robalobadob/cubes/internal/runs"
	"github.com/robalobadob/cubes/internal/solver"
	"github.com/robalobadob/cubes/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Server bundles router, game store, run history and configuration.
type Server struct {
	r     *chi.Mux
	store store.Store
	runs  *runs.Store
	cfg   config.Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, rs *runs.Store, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), store: st, runs: rs, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"cubes","endpoints":["/health","POST /games/parse","GET /games/{id}","POST /check","/runs"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/games", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Get("/", s.handleListGames)
		r.Get("/{id}", s.handleGetGame)
	})
	s.r.Post("/check", s.handleCheck)

	s.r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.With(s.requireAuth()).Post("/", s.handleCreateRun)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one debug line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// ------------------------------ GAMES --------------------------------------

type parseReq struct {
	Line string `json:"line"`
}

// gameRes is a parsed game plus its evaluation against the configured bag.
type gameRes struct {
	game.Game
	Line     string       `json:"line"` // canonical form
	Possible bool         `json:"possible"`
	Minimum  game.CubeSet `json:"minimum"`
	Power    string       `json:"power"`
}

// parseErrRes describes a parse failure.
type parseErrRes struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Line   int    `json:"line,omitempty"` // input line number for batch requests
}

func (s *Server) describe(g game.Game) gameRes {
	minimum := g.MinimumSet()
	return gameRes{
		Game:     g,
		Line:     g.String(),
		Possible: g.Possible(s.cfg.Limits),
		Minimum:  minimum,
		Power:    minimum.Power().String(),
	}
}

// handleParse parses one line and keeps the result in the game store.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	g, err := game.Parse(req.Line)
	if err != nil {
		var pe *game.ParseError
		if errors.As(err, &pe) {
			writeJSON(w, http.StatusUnprocessableEntity, parseErrRes{Error: "parse_failed", Kind: pe.Kind.String(), Offset: pe.Offset})
			return
		}
		writeError(w, http.StatusBadRequest, "parse_failed")
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, s.describe(g))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	out := make([]gameRes, 0, len(games))
	for _, g := range games {
		out = append(out, s.describe(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id")
		return
	}
	g, err := s.store.Get(r.Context(), uint32(id))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, s.describe(g))
}

// ------------------------------ BATCH --------------------------------------

// checkReq is the body of POST /check and POST /runs.
type checkReq struct {
	Input       string       `json:"input"`
	SkipInvalid bool         `json:"skipInvalid"`
	Limits      *game.Limits `json:"limits,omitempty"` // defaults to configuration
	Source      string       `json:"source,omitempty"` // label stored with a run
}

// solve runs the solver for a batch request. On failure it has already
// written the response and returns nil.
func (s *Server) solve(w http.ResponseWriter, r *http.Request) (*checkReq, *solver.Report) {
	var req checkReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return nil, nil
	}
	opts := solver.Options{Limits: s.cfg.Limits, SkipInvalid: req.SkipInvalid}
	if req.Limits != nil {
		opts.Limits = *req.Limits
	}
	rep, err := solver.Run(r.Context(), strings.NewReader(req.Input), opts)
	if err != nil {
		var le *solver.LineError
		if errors.As(err, &le) {
			writeJSON(w, http.StatusUnprocessableEntity, parseErrRes{
				Error: "parse_failed", Kind: le.Err.Kind.String(), Offset: le.Err.Offset, Line: le.Line,
			})
			return nil, nil
		}
		var tl *solver.TooLongError
		if errors.As(err, &tl) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "line_too_long", "line": tl.Line, "limit": tl.Limit})
			return nil, nil
		}
		log.Error().Err(err).Msg("solve")
		writeError(w, http.StatusInternalServerError, "solve_failed")
		return nil, nil
	}
	return &req, rep
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if _, rep := s.solve(w, r); rep != nil {
		writeJSON(w, http.StatusOK, rep)
	}
}

// ------------------------------- RUNS --------------------------------------

type createRunRes struct {
	ID     int64          `json:"id"`
	Report *solver.Report `json:"report"`
}

// handleCreateRun solves the batch and stores the report under the token subject.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	req, rep := s.solve(w, r)
	if rep == nil {
		return
	}
	source := req.Source
	if source == "" {
		source = "http"
	}
	id, err := s.runs.Insert(r.Context(), runs.NewRecord(subject(r), source, rep))
	if err != nil {
		log.Error().Err(err).Msg("insert run")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Int64("run", id).Str("owner", subject(r)).Msg("run recorded")
	writeJSON(w, http.StatusCreated, createRunRes{ID: id, Report: rep})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}
	list, err := s.runs.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list runs")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id")
		return
	}
	rec, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, runs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("run", id).Msg("get run")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ------------------------------- small util --------------------------------

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
