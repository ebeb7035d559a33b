package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/session"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/tasks"
)

// API serves the session operations over JSON.
//
// Every state change goes through the [session.Manager]. Network calls to the recommender
// happen outside the manager lock; their results are applied afterwards, so a seed removed
// while its metadata was in flight stays removed.
type API struct {
	engine  *tasks.Engine
	manager *session.Manager
	history repositories.HistoryStore
	logger  *log.Logger
}

// NewAPI creates the API handlers. history may be nil, in which case history routes answer 503.
func NewAPI(engine *tasks.Engine, manager *session.Manager, history repositories.HistoryStore, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &API{engine: engine, manager: manager, history: history, logger: logger}
}

// Mount registers every API route on r.
func (a *API) Mount(r Router) {
	r.Handle(http.MethodGet, "/api/search", http.HandlerFunc(a.search))
	r.Handle(http.MethodGet, "/api/session", http.HandlerFunc(a.session))
	r.Handle(http.MethodPost, "/api/session/toggle", http.HandlerFunc(a.toggle))
	r.Handle(http.MethodPost, "/api/session/random", http.HandlerFunc(a.random))
	r.Handle(http.MethodPost, "/api/session/genres", http.HandlerFunc(a.genres))
	r.Handle(http.MethodPost, "/api/session/num-recs", http.HandlerFunc(a.numRecs))
	r.Handle(http.MethodPost, "/api/recommend", http.HandlerFunc(a.recommend))
	r.Handle(http.MethodGet, "/api/history", http.HandlerFunc(a.listHistory))
	r.Handle(http.MethodDelete, "/api/history", http.HandlerFunc(a.clearHistory))
	r.Handle(http.MethodPost, "/api/history/restore", http.HandlerFunc(a.restoreHistory))
}

// NewRouter builds the full API router with logging and panic recovery.
func NewRouter(api *API, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(logger), Logging(logger))
	r.Handler(HealthHandler{})
	api.Mount(r)
	return r
}

// HealthHandler answers liveness checks.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"/health"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchResult is one dropdown row.
type SearchResult struct {
	models.Song
	Selected bool `json:"selected"`
}

// SessionResponse wraps the session with the pending seeds the snapshot leaves out.
type SessionResponse struct {
	Session models.Session `json:"session"`
	Pending []models.Song  `json:"pending"`
}

// ToggleResponse reports the outcome of a toggle or random add.
type ToggleResponse struct {
	SessionResponse
	Song     models.Song `json:"song"`
	Selected bool        `json:"selected"`
	Degraded bool        `json:"degraded"`
}

// RecommendResponse reports a recommendation run.
type RecommendResponse struct {
	Session      models.Session `json:"session"`
	Saved        bool           `json:"saved"`
	HistoryError string         `json:"history_error,omitempty"`
}

// HistoryResponse lists history in storage order (most-recent-last).
type HistoryResponse struct {
	Sessions []models.Session `json:"sessions"`
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	songs, total := a.engine.Catalog().Search(query, limit)
	results := make([]SearchResult, len(songs))
	a.manager.Do(func(s *session.State) {
		for i, song := range songs {
			results[i] = SearchResult{Song: song, Selected: s.Selection.Selected(song.ID)}
		}
	})

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": total})
}

func (a *API) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.currentSession())
}

func (a *API) currentSession() SessionResponse {
	var resp SessionResponse
	a.manager.Do(func(s *session.State) {
		resp = SessionResponse{Session: s.Snapshot(), Pending: s.Selection.Pending()}
	})
	return resp
}

func (a *API) toggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID *int `json:"id"`
	}
	if err := decode(r, &body); err != nil || body.ID == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"id\": int}")
		return
	}

	song, ok := a.engine.Catalog().Lookup(*body.ID)
	if !ok {
		writeErr(w, fmt.Errorf("%w: %d", shared.ErrSongNotFound, *body.ID))
		return
	}

	var adding bool
	a.manager.Do(func(s *session.State) {
		adding = s.Selection.Toggle(song)
	})

	resp := ToggleResponse{Song: song, Selected: adding}
	if adding {
		resp.Selected, resp.Degraded = a.enrichAndResolve(r, song)
	}
	resp.SessionResponse = a.currentSession()
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) random(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	err := a.manager.Update(func(s *session.State) error {
		picked, err := a.engine.PickRandom(s.Selection.Selected)
		if err != nil {
			return err
		}
		song = picked
		s.Selection.Toggle(song)
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := ToggleResponse{Song: song}
	resp.Selected, resp.Degraded = a.enrichAndResolve(r, song)
	resp.SessionResponse = a.currentSession()
	writeJSON(w, http.StatusOK, resp)
}

// enrichAndResolve fetches metadata for a pending song and applies it if still pending.
func (a *API) enrichAndResolve(r *http.Request, song models.Song) (selected, degraded bool) {
	meta, degraded, err := a.engine.Enrich(r.Context(), song.ID)
	if err != nil {
		meta, degraded = models.FromSong(song), true
	}

	a.manager.Do(func(s *session.State) {
		selected = s.Selection.Resolve(meta) || s.Selection.Contains(song.ID)
	})
	if !selected {
		a.logger.Debug("discarded enrichment for removed seed", "id", song.ID)
	}
	return selected, degraded
}

func (a *API) genres(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Genre string `json:"genre"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "body must be {\"genre\": string}")
		return
	}

	err := a.manager.Update(func(s *session.State) error {
		return s.Preferences.SetGenre(body.Genre)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentSession())
}

func (a *API) numRecs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NumRecs *int `json:"num_recs"`
	}
	if err := decode(r, &body); err != nil || body.NumRecs == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"num_recs\": int}")
		return
	}

	a.manager.Do(func(s *session.State) {
		s.Preferences.SetNumRecs(*body.NumRecs)
	})
	writeJSON(w, http.StatusOK, a.currentSession())
}

func (a *API) recommend(w http.ResponseWriter, r *http.Request) {
	snapshot := a.manager.Snapshot()

	res, err := a.engine.Recommend(r.Context(), snapshot, nil)
	if err != nil {
		writeErr(w, err)
		return
	}

	a.manager.Do(func(s *session.State) {
		s.SetOutput(res.Session.Output)
	})

	resp := RecommendResponse{Session: res.Session, Saved: res.Saved}
	if res.HistoryErr != nil {
		resp.HistoryError = res.HistoryErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) listHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeErr(w, shared.ErrServiceUnavailable)
		return
	}
	sessions, err := a.history.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Sessions: sessions})
}

func (a *API) clearHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeErr(w, shared.ErrServiceUnavailable)
		return
	}
	if err := a.history.Clear(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) restoreHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeErr(w, shared.ErrServiceUnavailable)
		return
	}
	var body struct {
		Index *int `json:"index"`
	}
	if err := decode(r, &body); err != nil || body.Index == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"index\": int}")
		return
	}

	stored, err := a.history.Get(r.Context(), *body.Index)
	if err != nil {
		writeErr(w, err)
		return
	}

	a.manager.Do(func(s *session.State) {
		s.Restore(stored)
	})
	writeJSON(w, http.StatusOK, a.currentSession())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps sentinel errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrUnknownGenre),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrNoSeeds):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrSongNotFound),
		errors.Is(err, shared.ErrHistoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrCatalogExhausted):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrMalformedResponse):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
