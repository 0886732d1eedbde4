package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

// maxBodyBytes bounds rule request bodies.
const maxBodyBytes = 1 << 20

// ErrorCodeHeader carries the machine-readable code of a failed request.
const ErrorCodeHeader = "X-Cascade-Error"

// RulesRequest is the body of both POST routes.
type RulesRequest struct {
	Exprs []string `json:"exprs"`
}

// RulesResponse is the body of the /rules routes.
type RulesResponse struct {
	Revision int64    `json:"revision"`
	Snapshot string   `json:"snapshot"`
	Rules    []string `json:"rules"`
}

// Server serves resolve requests from a registry.
type Server struct {
	registry  *engine.Registry
	evaluator *engine.Evaluator
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a server. A nil logger uses slog.Default().
func New(registry *engine.Registry, evaluator *engine.Evaluator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry:  registry,
		evaluator: evaluator,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{a}/{b}/{c}/{d}/{e}/{f}", s.handleResolve)
	s.mux.HandleFunc("POST /{a}/{b}/{c}/{d}/{e}/{f}", s.handleResolveWith)
	s.mux.HandleFunc("GET /rules", s.handleListRules)
	s.mux.HandleFunc("POST /rules", s.handleApplyRules)
	return s
}

// Handler returns the server's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAM", err.Error())
		return
	}
	s.resolve(w, r, s.registry.Rules(), scope)
}

func (s *Server) handleResolveWith(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAM", err.Error())
		return
	}
	req, ok := decodeRules(w, r)
	if !ok {
		return
	}

	rs, err := s.registry.Rules().Add(req.Exprs...)
	if err != nil {
		writeError(w, http.StatusBadRequest, engine.ErrorCode(err), message(err))
		return
	}
	s.resolve(w, r, rs, scope)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, rs *engine.RuleSet, scope ir.Scope) {
	ev, err := s.evaluator.Evaluate(r.Context(), rs, scope)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Ok: %s", ir.FormatValue(ev.Value))
	case ev.OK():
		// Resolution succeeded but the journal write did not.
		s.logger.Error("evaluation not journaled", "evaluation", ev.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "JOURNAL", "evaluation could not be recorded")
	default:
		writeError(w, http.StatusUnprocessableEntity, ev.ErrorCode, message(err))
	}
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	writeRules(w, s.registry.Snapshot())
}

func (s *Server) handleApplyRules(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRules(w, r)
	if !ok {
		return
	}
	snap, err := s.registry.Apply(req.Exprs...)
	if err != nil {
		writeError(w, http.StatusBadRequest, engine.ErrorCode(err), message(err))
		return
	}
	s.logger.Info("rules applied", "count", len(req.Exprs), "revision", snap.Revision)
	writeRules(w, snap)
}

func decodeRules(w http.ResponseWriter, r *http.Request) (RulesRequest, bool) {
	var req RulesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_BODY", "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

func writeRules(w http.ResponseWriter, snap *engine.Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RulesResponse{
		Revision: snap.Revision,
		Snapshot: snap.Rules.ID(),
		Rules:    snap.Rules.Texts(),
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(ErrorCodeHeader, code)
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}

// message returns the human-readable part of a typed error.
func message(err error) string {
	var (
		tokErr  *lexer.TokenizeError
		compErr *compiler.CompileError
		evalErr *compiler.EvalError
		resErr  *engine.ResolutionError
	)
	switch {
	case errors.As(err, &tokErr):
		return tokErr.Message
	case errors.As(err, &compErr):
		return compErr.Message
	case errors.As(err, &evalErr):
		return evalErr.Message
	case errors.As(err, &resErr):
		return resErr.Message
	default:
		return err.Error()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
