package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/engine"
	"github.com/dshills/edulint/internal/marker"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/structural"
)

// maxBody caps request bodies; submissions are short.
const maxBody = 1 << 20

// Handler serves the API. The HTTP endpoints share one catalog; each
// WebSocket session works on its own copy.
type Handler struct {
	catalog *catalog.Catalog
	client  *structural.Client
	opts    pattern.Options
	engine  *engine.Engine
}

func NewHandler(cat *catalog.Catalog, client *structural.Client, opts pattern.Options) *Handler {
	return &Handler{
		catalog: cat,
		client:  client,
		opts:    opts,
		engine:  engine.New(cat, client, opts),
	}
}

type catalogView struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Rules        []catalog.Rule `json:"rules"`
	PatternRules string         `json:"pattern_rules"`
	Sample       string         `json:"sample"`
}

func viewOf(c *catalog.Catalog) *catalogView {
	return &catalogView{
		Name:         c.Name,
		Description:  c.Description,
		Rules:        c.Rules(),
		PatternRules: c.DefaultPatternSource(),
		Sample:       c.Sample,
	}
}

type setRuleRequest struct {
	Enabled *bool `json:"enabled"`
}

type runRequest struct {
	Text         string  `json:"text"`
	PatternRules *string `json:"pattern_rules"`
}

type runResponse struct {
	Result  diag.RunResult  `json:"result"`
	Markers []marker.Marker `json:"markers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(h.catalog))
}

// HandleSetRule sets one rule's enabled flag. Unknown ids are accepted
// and ignored.
func (h *Handler) HandleSetRule(w http.ResponseWriter, r *http.Request) {
	var req setRuleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "enabled is required"})
		return
	}
	id := r.PathValue("id")
	if !h.catalog.SetEnabled(id, *req.Enabled) {
		log.Printf("set rule: unknown id %q ignored", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRun lints one submission. Without pattern_rules the catalog's
// default pattern rules apply.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}
	rules := h.catalog.DefaultPatternSource()
	if req.PatternRules != nil {
		rules = *req.PatternRules
	}
	res, markers := h.engine.RunWithMarkers(r.Context(), engine.Snapshot{Code: req.Text, Rules: rules})
	writeJSON(w, http.StatusOK, runResponse{Result: res, Markers: markers})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}
