package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tzdash/tzdash/pkg/directory"
	"github.com/tzdash/tzdash/pkg/session"
	"github.com/tzdash/tzdash/pkg/tztime"
)

// card is one rendered location in the dashboard response.
type card struct {
	session.Location
	Formatted      tztime.FormattedTime `json:"formatted"`
	Daytime        bool                 `json:"daytime"`
	TimeDifference string               `json:"timeDifference,omitempty"`
}

// dashboardResponse mirrors what the terminal renderer shows:
// recomputed per request, never stored.
type dashboardResponse struct {
	ReferenceTime time.Time `json:"referenceTime"`
	CustomTime    bool      `json:"customTime"`
	DarkTheme     bool      `json:"darkTheme"`
	Cards         []card    `json:"cards"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	now := s.session.Now()
	refTZ := s.session.ReferenceTimezone()
	locations := s.session.Locations()

	cards := make([]card, 0, len(locations))
	for _, loc := range locations {
		c := card{
			Location:  loc,
			Formatted: tztime.FormatInstant(now, loc.Timezone),
			Daytime:   tztime.IsDaytime(now, loc.Timezone),
		}
		if !loc.IsPrimary {
			c.TimeDifference = tztime.TimeDifferenceLabel(now, refTZ, loc.Timezone)
		}
		cards = append(cards, c)
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		ReferenceTime: now,
		CustomTime:    s.session.CustomInstantSet(),
		DarkTheme:     s.session.DarkMode(),
		Cards:         cards,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := directory.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []directory.Place{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusUnprocessableEntity, "body must carry a non-empty query")
		return
	}

	results := directory.Search(req.Query)
	if len(results) == 0 {
		writeError(w, http.StatusNotFound, "no place matches the query")
		return
	}

	// Capacity overflow is a silent no-op by design; the response
	// simply shows an unchanged location list.
	if err := s.session.AddLocation(r.Context(), results[0]); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.Locations())
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	s.session.RemoveLocation(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s.session.Locations())
}

func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "body must carry date and time")
		return
	}

	// The entered wall clock is interpreted in the primary location's
	// zone, offset taken from the entered date itself.
	instant, err := tztime.ResolveWallClockToInstant(req.Date, req.Time, s.session.ReferenceTimezone())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.session.SetCustomInstant(instant)
	writeJSON(w, http.StatusOK, map[string]any{"referenceTime": instant})
}

func (s *Server) handleResetTime(w http.ResponseWriter, _ *http.Request) {
	s.session.ClearCustomInstant()
	writeJSON(w, http.StatusOK, map[string]any{"customTime": false})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, _ *http.Request) {
	s.session.ToggleTheme()
	writeJSON(w, http.StatusOK, map[string]bool{"darkTheme": s.session.DarkMode()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
