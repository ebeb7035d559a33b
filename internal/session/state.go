package session

import (
	"github.com/desertthunder/songrec/internal/models"
)

// State aggregates everything a session snapshot records.
type State struct {
	Selection   *Selection
	Preferences *Preferences
	output      []models.SongMetadata
}

// NewState returns the default session state.
func NewState() *State {
	return &State{
		Selection:   NewSelection(),
		Preferences: NewPreferences(),
		output:      []models.SongMetadata{},
	}
}

// Output returns a copy of the last received recommendations.
func (s *State) Output() []models.SongMetadata {
	out := make([]models.SongMetadata, len(s.output))
	copy(out, s.output)
	return out
}

// SetOutput replaces the recommendations.
func (s *State) SetOutput(out []models.SongMetadata) {
	s.output = make([]models.SongMetadata, len(out))
	copy(s.output, out)
}

// Snapshot returns a detached [models.Session] of the current state. Pending songs are not included.
func (s *State) Snapshot() models.Session {
	snap := models.NewSession()
	snap.Input = s.Selection.Songs()
	snap.Genres = s.Preferences.Genres()
	snap.NumRecs = s.Preferences.NumRecs()
	snap.Output = s.Output()
	return snap.Clone()
}

// Restore replaces the state with a stored session.
func (s *State) Restore(session models.Session) {
	session = session.Clone()
	s.Selection.Reset(session.Input)
	s.Preferences.SetGenres(session.Genres)
	s.Preferences.SetNumRecs(session.NumRecs)
	s.SetOutput(session.Output)
}
