package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/typecheck"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

const kindBadRequest core.ErrorKind = "bad_request"

type analyzeRequest struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect,omitempty"`
}

type batchRequest struct {
	Statements []service.Source `json:"statements"`
	// Script is split into statements and appended after Statements.
	Script  string `json:"script,omitempty"`
	Name    string `json:"name,omitempty"`
	Dialect string `json:"dialect,omitempty"`
}

type batchItem struct {
	Name   string             `json:"name,omitempty"`
	SQL    string             `json:"sql"`
	Result *typecheck.Result  `json:"result,omitempty"`
	Error  *service.ErrorInfo `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
	Failed  int         `json:"failed"`
}

type errorResponse struct {
	Error service.ErrorInfo `json:"error"`
}

type schemaResponse struct {
	Dialect string        `json:"dialect"`
	Tables  []*core.Table `json:"tables"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tables": s.Service().Catalog().Len(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SQL == "" {
		badRequest(w, "sql is required")
		return
	}

	res, err := s.Service().Analyze(r.Context(), req.SQL, req.Dialect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}
	svc := s.Service()

	sources := req.Statements
	if req.Script != "" {
		name := req.Name
		if name == "" {
			name = "script"
		}
		split, err := svc.Split(name, req.Script, req.Dialect)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		sources = append(sources, split...)
	}
	if len(sources) == 0 {
		badRequest(w, "no statements given")
		return
	}

	outcomes, err := svc.AnalyzeBatch(r.Context(), sources)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := batchResponse{Results: make([]batchItem, len(outcomes))}
	for i, o := range outcomes {
		item := batchItem{Name: o.Source.Name, SQL: o.Source.SQL, Result: o.Result}
		if o.Err != nil {
			info := service.Describe(o.Err)
			item.Error = &info
			resp.Failed++
		}
		resp.Results[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, analyzeRequest{SQL: s.Service().Normalize(req.SQL)})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	cat := s.Service().Catalog()
	writeJSON(w, http.StatusOK, schemaResponse{Dialect: cat.Dialect().Name, Tables: cat.Tables()})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	t, err := s.Service().Catalog().LookupTable(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: service.Describe(err)})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// decode reads a JSON body into v and writes a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeError maps statement failures to 422 and everything else to 400,
// or 503 when the request was cancelled.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	info := service.Describe(err)
	switch {
	case service.IsStatementError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: info})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: info})
	default:
		info.Kind = kindBadRequest
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: info})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: service.ErrorInfo{Kind: kindBadRequest, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
