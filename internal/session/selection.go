package session

import (
	"slices"

	"github.com/desertthunder/songrec/internal/models"
)

// Selection is the ordered set of seed songs plus the songs awaiting enrichment.
type Selection struct {
	seeds   []models.SongMetadata
	pending map[int]models.Song
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{pending: make(map[int]models.Song)}
}

// Toggle removes the song when it is selected or pending, and otherwise marks it pending.
//
// It reports whether the song is now being added, in which case the caller should
// enrich it and hand the result to [Selection.Resolve].
func (s *Selection) Toggle(song models.Song) bool {
	if s.Remove(song.ID) {
		return false
	}
	s.pending[song.ID] = song
	return true
}

// Add appends already enriched metadata. It reports false when the id is already a seed.
func (s *Selection) Add(meta models.SongMetadata) bool {
	delete(s.pending, meta.ID)
	if s.Contains(meta.ID) {
		return false
	}
	s.seeds = append(s.seeds, meta)
	return true
}

// Remove drops the id from the seeds or the pending set.
func (s *Selection) Remove(id int) bool {
	if _, ok := s.pending[id]; ok {
		delete(s.pending, id)
		return true
	}
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.seeds = slices.Delete(s.seeds, i, i+1)
	return true
}

// Resolve applies the enrichment result for a pending song.
//
// Results for ids that are no longer pending are discarded and Resolve returns false.
func (s *Selection) Resolve(meta models.SongMetadata) bool {
	if _, ok := s.pending[meta.ID]; !ok {
		return false
	}
	return s.Add(meta)
}

// Contains reports whether id is an enriched seed.
func (s *Selection) Contains(id int) bool {
	return s.index(id) >= 0
}

// IsPending reports whether id is awaiting enrichment.
func (s *Selection) IsPending(id int) bool {
	_, ok := s.pending[id]
	return ok
}

// Selected reports whether id is a seed or pending. This is what the selected marker shows.
func (s *Selection) Selected(id int) bool {
	return s.IsPending(id) || s.Contains(id)
}

// Songs returns a copy of the seeds in insertion order.
func (s *Selection) Songs() []models.SongMetadata {
	out := make([]models.SongMetadata, len(s.seeds))
	copy(out, s.seeds)
	return out
}

// Pending returns the songs awaiting enrichment, ordered by id.
func (s *Selection) Pending() []models.Song {
	out := make([]models.Song, 0, len(s.pending))
	for _, song := range s.pending {
		out = append(out, song)
	}
	slices.SortFunc(out, func(a, b models.Song) int { return a.ID - b.ID })
	return out
}

// IDs returns the seed ids in insertion order.
func (s *Selection) IDs() []int {
	ids := make([]int, len(s.seeds))
	for i, m := range s.seeds {
		ids[i] = m.ID
	}
	return ids
}

// Len returns the number of enriched seeds.
func (s *Selection) Len() int {
	return len(s.seeds)
}

// Reset replaces the seeds and drops every pending song.
func (s *Selection) Reset(seeds []models.SongMetadata) {
	clear(s.pending)
	s.seeds = s.seeds[:0]
	for _, m := range seeds {
		if !s.Contains(m.ID) {
			s.seeds = append(s.seeds, m)
		}
	}
}

func (s *Selection) index(id int) int {
	return slices.IndexFunc(s.seeds, func(m models.SongMetadata) bool { return m.ID == id })
}
