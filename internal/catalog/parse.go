package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

const delimiter = ";"

// columns maps header names to their field index.
type columns map[string]int

func (c columns) value(fields []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// Parse reads a semicolon-separated catalog.
//
// Blank lines are skipped. The header must name at least the id and name columns.
func Parse(r io.Reader) ([]models.Song, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		header columns
		songs  []models.Song
		line   int
	)

	for scanner.Scan() {
		line++
		row := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if row == "" {
			continue
		}

		fields := strings.Split(row, delimiter)

		if header == nil {
			h, err := parseHeader(fields)
			if err != nil {
				return nil, err
			}
			header = h
			continue
		}

		song, err := parseRow(header, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidCatalog, line, err)
		}
		songs = append(songs, song)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

func parseHeader(fields []string) (columns, error) {
	h := make(columns, len(fields))
	for i, f := range fields {
		h[strings.ToLower(strings.TrimSpace(f))] = i
	}

	for _, required := range []string{"id", "name"} {
		if _, ok := h[required]; !ok {
			return nil, fmt.Errorf("%w: header is missing the %q column", shared.ErrInvalidCatalog, required)
		}
	}
	return h, nil
}

func parseRow(h columns, fields []string) (models.Song, error) {
	rawID := h.value(fields, "id")
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return models.Song{}, fmt.Errorf("id %q is not an integer", rawID)
	}

	return models.Song{
		ID:       id,
		TrackID:  h.value(fields, "track_id"),
		Name:     h.value(fields, "name"),
		Artists:  ParseArtists(h.value(fields, "artists")),
		Genre:    h.value(fields, "genre"),
		Subgenre: h.value(fields, "subgenre"),
	}, nil
}

// ParseArtists decodes a bracketed list such as ['Artist A', "Artist, B"].
//
// Quoted items may contain commas. Unquoted lists fall back to splitting on commas.
// An empty field yields an empty list.
func ParseArtists(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	artists := []string{}
	if strings.TrimSpace(raw) == "" {
		return artists
	}

	var (
		current strings.Builder
		quote   rune
	)

	flush := func() {
		name := strings.TrimSpace(current.String())
		name = strings.Trim(name, `'"`)
		if name != "" {
			artists = append(artists, name)
		}
		current.Reset()
	}

	for _, r := range raw {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"') && strings.TrimSpace(current.String()) == "":
			quote = r
		case quote == 0 && r == ',':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return artists
}
