package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/timeline"
)

const (
	defaultHours = 24
	maxHours     = 24 * 7
	timelineCap  = 50
)

var apiKinds = []domain.EventKind{
	domain.KindSleep, domain.KindFeeding, domain.KindHealth,
	domain.KindDiaper, domain.KindBath, domain.KindCare,
}

// Server exposes health and a read-only JSON timeline, mirroring the chat
// calendar view.
type Server struct {
	log *zap.Logger
	agg *timeline.Aggregator
}

// NewServer builds the HTTP server on the given address.
func NewServer(addr string, log *zap.Logger, agg *timeline.Aggregator) *http.Server {
	s := &Server{log: log, agg: agg}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/api/timeline", s.handleTimeline).Methods(http.MethodGet)

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleTimeline serves GET /api/timeline?child=<id>[&family=<id>][&hours=<h>].
func (s *Server) handleTimeline(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	childID, err := strconv.ParseInt(q.Get("child"), 10, 64)
	if err != nil || childID <= 0 {
		http.Error(w, "child query parameter is required", http.StatusBadRequest)
		return
	}
	var familyID int64
	if v := q.Get("family"); v != "" {
		familyID, err = strconv.ParseInt(v, 10, 64)
		if err != nil || familyID < 0 {
			http.Error(w, "invalid family query parameter", http.StatusBadRequest)
			return
		}
	}
	hours := defaultHours
	if v := q.Get("hours"); v != "" {
		hours, err = strconv.Atoi(v)
		if err != nil || hours <= 0 || hours > maxHours {
			http.Error(w, "hours must be between 1 and 168", http.StatusBadRequest)
			return
		}
	}

	scope := domain.Scope{ChildID: childID, FamilyID: familyID}
	window := domain.LastHours(time.Now().UTC(), hours)

	entries, err := s.agg.Build(req.Context(), scope, window, timelineCap, apiKinds)
	if err != nil {
		s.log.Error("timeline build failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []timeline.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"entries": entries}); err != nil {
		s.log.Warn("timeline encode failed", zap.Error(err))
	}
}
