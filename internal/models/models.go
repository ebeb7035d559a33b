package models

import (
	"slices"
	"strings"
	"time"
)

// SessionVersion is stamped on every persisted [Session] so the history format can evolve.
const SessionVersion = 1

// Bounds and defaults for the requested number of recommendations.
const (
	MinNumRecs     = 10
	MaxNumRecs     = 40
	DefaultNumRecs = 25
)

// AllGenresTag is the pseudo-tag selecting the full vocabulary.
const AllGenresTag = "all"

// genres is the fixed genre vocabulary in display order.
var genres = []string{"pop", "rap", "rock", "latin", "r&b", "edm"}

// Genres returns a copy of the fixed genre vocabulary.
func Genres() []string {
	return slices.Clone(genres)
}

// IsGenre reports whether tag belongs to the vocabulary.
func IsGenre(tag string) bool {
	return slices.Contains(genres, tag)
}

// Song is a catalog entry.
type Song struct {
	ID       int      `json:"id"`
	TrackID  string   `json:"track_id"`
	Name     string   `json:"name"`
	Artists  []string `json:"artists"`
	Genre    string   `json:"genre"`
	Subgenre string   `json:"subgenre"`
}

// ArtistLine joins the artists for display.
func (s Song) ArtistLine() string {
	return strings.Join(s.Artists, ", ")
}

// SongMetadata is a [Song] enriched with fields only the recommender provides.
type SongMetadata struct {
	Song
	PreviewURL string `json:"preview_url"`
	TrackURL   string `json:"track_url"`
	ImageURL   string `json:"image_url"`
}

// FromSong returns the degraded metadata built only from locally known catalog fields.
func FromSong(s Song) SongMetadata {
	s.Artists = slices.Clone(s.Artists)
	return SongMetadata{Song: s}
}

// Session is a snapshot of seeds, preferences and the last received recommendations.
type Session struct {
	Version   int            `json:"version"`
	ID        string         `json:"id,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
	Input     []SongMetadata `json:"input"`
	Genres    []string       `json:"genres"`
	NumRecs   int            `json:"num_recs"`
	Output    []SongMetadata `json:"output"`
}

// NewSession returns the default session: every genre, [DefaultNumRecs], no seeds, no output.
func NewSession() Session {
	return Session{
		Version: SessionVersion,
		Input:   []SongMetadata{},
		Genres:  Genres(),
		NumRecs: DefaultNumRecs,
		Output:  []SongMetadata{},
	}
}

// SeedIDs returns the ids of the input songs in order.
func (s Session) SeedIDs() []int {
	ids := make([]int, len(s.Input))
	for i, song := range s.Input {
		ids[i] = song.ID
	}
	return ids
}

// Clone returns a deep copy so snapshots never alias live state.
func (s Session) Clone() Session {
	c := s
	c.Input = cloneMetadata(s.Input)
	c.Output = cloneMetadata(s.Output)
	c.Genres = slices.Clone(s.Genres)
	if c.Genres == nil {
		c.Genres = []string{}
	}
	return c
}

func cloneMetadata(in []SongMetadata) []SongMetadata {
	out := make([]SongMetadata, len(in))
	for i, m := range in {
		m.Artists = slices.Clone(m.Artists)
		out[i] = m
	}
	return out
}

// ClampNumRecs bounds n to [MinNumRecs, MaxNumRecs].
func ClampNumRecs(n int) int {
	return min(max(n, MinNumRecs), MaxNumRecs)
}
