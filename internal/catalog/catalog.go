package catalog

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// DefaultSearchLimit caps the number of search results shown in the dropdown.
const DefaultSearchLimit = 15

// Catalog is the read-only, in-memory song list loaded at startup.
type Catalog struct {
	songs []models.Song
	index map[int]int
}

// New builds a catalog over songs. The slice is owned by the catalog afterwards.
func New(songs []models.Song) *Catalog {
	index := make(map[int]int, len(songs))
	for i, s := range songs {
		if _, dup := index[s.ID]; !dup {
			index[s.ID] = i
		}
	}
	return &Catalog{songs: songs, index: index}
}

// Load reads the catalog from a file path or an http(s) URL.
func Load(ctx context.Context, source string) (*Catalog, error) {
	r, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	songs, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", source, err)
	}
	return New(songs), nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open catalog: %v", shared.ErrInvalidCatalog, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCatalog, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch catalog: %v", shared.ErrInvalidCatalog, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: catalog fetch returned status %d", shared.ErrInvalidCatalog, resp.StatusCode)
	}
	return resp.Body, nil
}

// Songs returns the catalog entries in file order. Callers must not modify the slice.
func (c *Catalog) Songs() []models.Song {
	return c.songs
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// Lookup finds a song by id.
func (c *Catalog) Lookup(id int) (models.Song, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Song{}, false
	}
	return c.songs[i], true
}

// Search runs [Search] over the catalog.
func (c *Catalog) Search(query string, limit int) ([]models.Song, int) {
	return Search(query, c.songs, limit)
}

// RandomExcluding runs [RandomExcluding] over the catalog.
func (c *Catalog) RandomExcluding(rng *rand.Rand, exclude func(id int) bool) (models.Song, error) {
	return RandomExcluding(rng, c.songs, exclude)
}

// Search returns up to limit songs whose name, any artist, genre or subgenre contains
// query case-insensitively, together with the total number of matches.
//
// An empty or whitespace-only query matches nothing. A non-positive limit uses [DefaultSearchLimit].
func Search(query string, songs []models.Song, limit int) ([]models.Song, int) {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []models.Song{}
	if q == "" {
		return results, 0
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	total := 0
	for _, s := range songs {
		if !matches(s, q) {
			continue
		}
		total++
		if len(results) < limit {
			results = append(results, s)
		}
	}
	return results, total
}

func matches(s models.Song, q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Genre), q) ||
		strings.Contains(strings.ToLower(s.Subgenre), q) {
		return true
	}
	for _, a := range s.Artists {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

// RandomExcluding picks a song uniformly among those for which exclude returns false.
//
// A nil rng uses the global source. A nil exclude excludes nothing.
// Returns [shared.ErrCatalogExhausted] when no candidate remains.
func RandomExcluding(rng *rand.Rand, songs []models.Song, exclude func(id int) bool) (models.Song, error) {
	candidates := make([]int, 0, len(songs))
	for i, s := range songs {
		if exclude == nil || !exclude(s.ID) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return models.Song{}, shared.ErrCatalogExhausted
	}

	var n int
	if rng != nil {
		n = rng.IntN(len(candidates))
	} else {
		n = rand.IntN(len(candidates))
	}
	return songs[candidates[n]], nil
}
