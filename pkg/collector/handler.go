package collector

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Query limits
const (
	DefaultListLimit = 100
	MaxParamsPerHit  = 500
)

// Handler serves the collector endpoints
type Handler struct {
	log     *Log
	hub     *Hub
	metrics *Metrics
	apiKey  string
	started time.Time
}

// NewHandler creates a handler. Requests must carry apiKey as a bearer token
// when it is not empty.
func NewHandler(log *Log, hub *Hub, metrics *Metrics, apiKey string) *Handler {
	return &Handler{
		log:     log,
		hub:     hub,
		metrics: metrics,
		apiKey:  apiKey,
		started: time.Now(),
	}
}

// HitResponse acknowledges a received hit
type HitResponse struct {
	Status string `json:"status"`
	ID     uint64 `json:"id"`
	Params int    `json:"params"`
}

// HitsResponse lists received hits
type HitsResponse struct {
	Hits  []Hit `json:"hits"`
	Count int   `json:"count"`
	Total int   `json:"total"`
}

// HandleHit records the hit carried by the query string of a GET /hit
func (h *Handler) HandleHit(w http.ResponseWriter, r *http.Request) {
	params, err := parseHit(r.URL.RawQuery)
	if err != nil {
		h.metrics.reject("malformed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hit := h.log.Add(params)
	h.metrics.observe(hit, h.log.Len())

	logrus.WithFields(logrus.Fields{
		"id":     hit.ID,
		"type":   hit.Type(),
		"params": len(hit.Params),
	}).Debug("hit received")

	if err := h.hub.Publish(hit); err != nil {
		logrus.WithError(err).Warn("failed to publish hit")
	}

	respondJSON(w, http.StatusOK, HitResponse{Status: "accepted", ID: hit.ID, Params: len(hit.Params)})
}

// HandleList returns the newest hits. Query: limit (default 100), type.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	hits := h.log.Recent(limit, r.URL.Query().Get("type"))
	if hits == nil {
		hits = []Hit{}
	}
	respondJSON(w, http.StatusOK, HitsResponse{Hits: hits, Count: len(hits), Total: h.log.Len()})
}

// HandleClear drops every stored hit
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.log.Clear()
	h.metrics.stored.Set(0)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"hits":   h.log.Len(),
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// RequireKey rejects requests without the configured bearer token
func (h *Handler) RequireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) != 1 {
				h.metrics.reject("unauthorized")
				respondError(w, http.StatusUnauthorized, "missing or invalid API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// parseHit splits a raw query into its pairs, keeping their order and
// duplicates, and decodes each value once.
func parseHit(raw string) ([]Param, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty hit")
	}

	var params []Param
	for _, field := range strings.Split(raw, "&") {
		if field == "" {
			continue
		}
		name, value, _ := strings.Cut(field, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		if n == "" {
			return nil, fmt.Errorf("parameter without a name")
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", n, err)
		}
		params = append(params, Param{Name: n, Value: v})
		if len(params) > MaxParamsPerHit {
			return nil, fmt.Errorf("too many parameters (max %d)", MaxParamsPerHit)
		}
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("empty hit")
	}
	return params, nil
}
