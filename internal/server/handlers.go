package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wfdiagram/pkg/buildinfo"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/observability"
	"github.com/matzehuels/wfdiagram/pkg/pipeline"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HintsRequest is the body of POST /api/v1/hints: an already positioned
// diagram, as produced by a browser-side layout.
type HintsRequest struct {
	Nodes []diagram.Node `json:"nodes"`
	Edges []diagram.Edge `json:"edges"`
}

// HintsResponse carries the edges with merge hints attached.
type HintsResponse struct {
	Edges []diagram.Edge `json:"edges"`
	Hints int            `json:"hints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no workflow source configured"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	summaries, err := s.source.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"workflows": summaries})
}

func (s *Server) handleWorkflowDiagram(w http.ResponseWriter, r *http.Request) {
	res, ok := s.executeWorkflow(w, r, graph.FormatJSON)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, res.Diagram)
}

func (s *Server) handleWorkflowSVG(w http.ResponseWriter, r *http.Request) {
	res, ok := s.executeWorkflow(w, r, graph.FormatSVG)
	if !ok {
		return
	}
	s.writeBody(w, r, http.StatusOK, "image/svg+xml", res.Artifacts[graph.FormatSVG])
}

func (s *Server) executeWorkflow(w http.ResponseWriter, r *http.Request, format string) (*pipeline.Result, bool) {
	if s.source == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no workflow source configured"))
		return nil, false
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateWorkflowID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), s.source, id, opts)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return res, true
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	wf, err := graph.ReadWorkflow(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.runner.Diagram(r.Context(), wf, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	var req HintsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode hints request"))
		return
	}

	start := time.Now()
	edges := s.opts.Defaults.Hinter.Apply(req.Nodes, req.Edges)
	hinted := diagram.CountHinted(edges)
	observability.Pipeline().OnHintsComplete(r.Context(), len(edges), hinted, time.Since(start))

	if edges == nil {
		edges = []diagram.Edge{}
	}
	s.writeJSON(w, r, http.StatusOK, HintsResponse{Edges: edges, Hints: hinted})
}

// requestOptions applies query parameters to the server defaults.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Logger = s.logger

	q := r.URL.Query()
	if v := q.Get("engine"); v != "" {
		opts.Engine = v
	}
	if v := q.Get("direction"); v != "" {
		opts.Direction = v
	}
	if v := q.Get("hints"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid hints value %q", v)
		}
		opts.NoHints = !on
	}
	if v := q.Get("refresh"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid refresh value %q", v)
		}
		opts.Refresh = on
	}

	opts = opts.WithDefaults()
	return opts, opts.Validate()
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	s.writeJSON(w, r, status, errorBody{Error: errorDetail{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeBody(w, r, status, "application/json", append(data, '\n'))
}

// writeBody sends a complete response. Write errors mean the client went away
// and are only logged.
func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("response write failed", "request_id", RequestID(r.Context()), "error", err)
	}
}
