package session

import (
	"fmt"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Preferences is the genre filter and requested result count.
type Preferences struct {
	genres  map[string]bool
	numRecs int
}

// NewPreferences returns every genre selected and [models.DefaultNumRecs].
func NewPreferences() *Preferences {
	p := &Preferences{genres: make(map[string]bool), numRecs: models.DefaultNumRecs}
	p.SetAll()
	return p
}

// SetGenre selects the whole vocabulary for [models.AllGenresTag] and toggles any other tag.
func (p *Preferences) SetGenre(tag string) error {
	if tag == models.AllGenresTag {
		p.SetAll()
		return nil
	}
	if !models.IsGenre(tag) {
		return fmt.Errorf("%w: %q", shared.ErrUnknownGenre, tag)
	}
	if p.genres[tag] {
		delete(p.genres, tag)
	} else {
		p.genres[tag] = true
	}
	return nil
}

// RemoveGenre deselects tag. Removing an unselected genre is a no-op.
func (p *Preferences) RemoveGenre(tag string) error {
	if !models.IsGenre(tag) {
		return fmt.Errorf("%w: %q", shared.ErrUnknownGenre, tag)
	}
	delete(p.genres, tag)
	return nil
}

// SetAll selects every genre.
func (p *Preferences) SetAll() {
	for _, g := range models.Genres() {
		p.genres[g] = true
	}
}

// SetGenres replaces the selection. Unknown tags are skipped.
func (p *Preferences) SetGenres(tags []string) {
	clear(p.genres)
	for _, t := range tags {
		if models.IsGenre(t) {
			p.genres[t] = true
		}
	}
}

// SetNumRecs stores n clamped to [models.MinNumRecs, models.MaxNumRecs] and returns the stored value.
func (p *Preferences) SetNumRecs(n int) int {
	p.numRecs = models.ClampNumRecs(n)
	return p.numRecs
}

// NumRecs returns the requested result count.
func (p *Preferences) NumRecs() int {
	return p.numRecs
}

// HasGenre reports whether tag is selected.
func (p *Preferences) HasGenre(tag string) bool {
	return p.genres[tag]
}

// Genres returns the selected genres in vocabulary order. The result is never nil.
func (p *Preferences) Genres() []string {
	out := []string{}
	for _, g := range models.Genres() {
		if p.genres[g] {
			out = append(out, g)
		}
	}
	return out
}
