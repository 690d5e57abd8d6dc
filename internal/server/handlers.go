package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cwbudde/algo-modsynth/synth/engine"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
	"github.com/cwbudde/algo-modsynth/synth/route"
	"github.com/cwbudde/algo-modsynth/synth/snapshot"
)

const maxBodySize = 1 << 20

type graphResponse struct {
	Graph  json.RawMessage  `json:"graph"`
	Layout *snapshot.Layout `json:"layout"`
	Blocks uint64           `json:"blocks"`
}

type modulationResponse struct {
	Param     string        `json:"param"`
	ModID     string        `json:"modId"` //nolint:tagliatelle
	Input     int           `json:"input"`
	Connected bool          `json:"connected"`
	Source    *endpointJSON `json:"source,omitempty"`
}

type endpointJSON struct {
	Node     graph.NodeID `json:"node"`
	Channel  int          `json:"channel"`
	Feedback bool         `json:"feedback,omitempty"`
}

type historyResponse struct {
	Applied bool `json:"applied"`
	Undo    int  `json:"undo"`
	Redo    int  `json:"redo"`
}

type labelRequest struct {
	Label string `json:"label"`
}

type chainRequest struct {
	Label string   `json:"label"`
	Kinds []string `json:"kinds"`
}

type paramRequest struct {
	Value float64 `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Registry().Kinds())
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	var resp graphResponse

	err := s.Do(func(e *engine.Engine) error {
		data, err := e.GraphState()
		if err != nil {
			return err
		}

		resp = graphResponse{Graph: data, Layout: e.Layout(), Blocks: e.Blocks()}

		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModulations(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(chi.URLParam(r, "id"))

	var statuses []route.Status

	err := s.Do(func(e *engine.Engine) (err error) {
		statuses, err = e.Modulations(id)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]modulationResponse, 0, len(statuses))
	for _, st := range statuses {
		m := modulationResponse{Param: st.Param, ModID: st.ModID, Input: st.Input, Connected: st.Connected}
		if st.Connected {
			m.Source = &endpointJSON{Node: st.Source.Src, Channel: st.Source.SrcChan, Feedback: st.Source.Feedback}
		}

		resp = append(resp, m)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req paramRequest
	if !s.decode(w, r, &req) {
		return
	}

	id := graph.NodeID(chi.URLParam(r, "id"))
	param := chi.URLParam(r, "param")

	var v float64

	err := s.Do(func(e *engine.Engine) error {
		err := e.SetParam(id, param, req.Value)
		if err != nil {
			return err
		}

		v, err = e.Param(id, param)

		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"value": v})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	var snap map[graph.NodeID]map[string]float64

	_ = s.Do(func(e *engine.Engine) error {
		snap = e.TelemetrySnapshot()
		return nil
	})

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	s.history(w, (*engine.Engine).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	s.history(w, (*engine.Engine).Redo)
}

func (s *Server) history(w http.ResponseWriter, op func(*engine.Engine) (bool, error)) {
	var resp historyResponse

	err := s.Do(func(e *engine.Engine) error {
		ok, err := op(e)
		resp = historyResponse{Applied: ok, Undo: e.History().UndoLen(), Redo: e.History().RedoLen()}

		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Label == "" {
		req.Label = "capture"
	}

	var resp historyResponse

	err := s.Do(func(e *engine.Engine) error {
		_, err := e.Capture(req.Label)
		resp = historyResponse{Applied: err == nil, Undo: e.History().UndoLen(), Redo: e.History().RedoLen()}

		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if !s.decode(w, r, &req) {
		return
	}

	if len(req.Kinds) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "kinds is required"})
		return
	}

	if req.Label == "" {
		req.Label = "chain"
	}

	var queued bool

	_ = s.Do(func(e *engine.Engine) error {
		queued = e.Request(engine.Chain(req.Label, req.Kinds...))
		return nil
	})

	if !queued {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request queue full"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"label": req.Label})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return false
	}

	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, node.ErrUnknownParam), errors.Is(err, route.ErrNoRoute):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrRenderInFlight):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
