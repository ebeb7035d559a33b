// package formatter renders sessions and song lists as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "txt"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat resolves a format name, accepting "text" and "md" as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "txt", "text":
		return Text, nil
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Extension returns the file extension used for exports in f.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// SongLine renders "Artist A, Artist B - Name (genre / subgenre)".
func SongLine(s models.Song) string {
	var b strings.Builder
	if artists := s.ArtistLine(); artists != "" {
		b.WriteString(artists)
		b.WriteString(" - ")
	}
	b.WriteString(s.Name)
	switch {
	case s.Genre != "" && s.Subgenre != "":
		fmt.Fprintf(&b, " (%s / %s)", s.Genre, s.Subgenre)
	case s.Genre != "":
		fmt.Fprintf(&b, " (%s)", s.Genre)
	}
	return b.String()
}

// SongsToCSV converts songs to CSV with one column per metadata field.
func SongsToCSV(songs []models.SongMetadata) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"id", "track_id", "name", "artists", "genre", "subgenre", "preview_url", "track_url", "image_url"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range songs {
		record := []string{
			strconv.Itoa(s.ID),
			s.TrackID,
			s.Name,
			strings.Join(s.Artists, "; "),
			s.Genre,
			s.Subgenre,
			s.PreviewURL,
			s.TrackURL,
			s.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SessionToText renders a session as plain text.
func SessionToText(s models.Session) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader(&buf, s, "")
	buf.WriteString("\nSeeds:\n")
	writeList(&buf, s.Input, func(m models.SongMetadata) string { return SongLine(m.Song) })
	buf.WriteString("\nRecommendations:\n")
	writeList(&buf, s.Output, func(m models.SongMetadata) string { return SongLine(m.Song) })

	return buf.Bytes(), nil
}

// SessionToMarkdown renders a session as Markdown with an optional cover image.
func SessionToMarkdown(s models.Session, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	title := "Recommendation Session"
	if s.ID != "" {
		title = fmt.Sprintf("Session %s", s.ID)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	writeHeader(&buf, s, "**")

	buf.WriteString("\n## Seeds\n\n")
	writeList(&buf, s.Input, markdownSong)
	buf.WriteString("\n## Recommendations\n\n")
	writeList(&buf, s.Output, markdownSong)

	return buf.Bytes(), nil
}

// SessionToJSON encodes a session exactly as it is stored in history.
func SessionToJSON(s models.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return append(data, '\n'), nil
}

// Render writes s to w in format f. CSV renders the recommendations only.
func Render(w io.Writer, s models.Session, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case CSV:
		data, err = SongsToCSV(s.Output)
	case Markdown:
		data, err = SessionToMarkdown(s, "")
	case JSON:
		data, err = SessionToJSON(s)
	default:
		data, err = SessionToText(s)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, s models.Session, strong string) {
	label := func(name string) string { return strong + name + strong }

	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(buf, "%s: %s\n", label("Created"), s.CreatedAt.Local().Format(time.DateTime))
	}
	genres := "(none)"
	if len(s.Genres) > 0 {
		genres = strings.Join(s.Genres, ", ")
	}
	fmt.Fprintf(buf, "%s: %s\n", label("Genres"), genres)
	fmt.Fprintf(buf, "%s: %d\n", label("Requested"), s.NumRecs)
}

func writeList(buf *bytes.Buffer, songs []models.SongMetadata, line func(models.SongMetadata) string) {
	if len(songs) == 0 {
		buf.WriteString("(none)\n")
		return
	}
	for i, s := range songs {
		fmt.Fprintf(buf, "%d. %s\n", i+1, line(s))
	}
}

func markdownSong(m models.SongMetadata) string {
	line := SongLine(m.Song)
	if m.TrackURL != "" {
		line = fmt.Sprintf("[%s](%s)", line, m.TrackURL)
	}
	if m.PreviewURL != "" {
		line += fmt.Sprintf(" ([preview](%s))", m.PreviewURL)
	}
	return line
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ExportResult lists the files written by [WriteSessionExport].
type ExportResult struct {
	Files      []string
	CoverImage string
}

// WriteSessionExport writes s to dir in format f and returns the created files.
//
// Files are named session_{id}.{ext}. Markdown exports also try to save the first seed's
// artwork as session_{id}_cover.jpg next to the document; a failed download only skips the image.
func WriteSessionExport(s models.Session, f Format, dir string) (*ExportResult, error) {
	if !slices.Contains(Formats, f) {
		f = Text
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	name := s.ID
	if name == "" {
		name = strconv.FormatInt(time.Now().Unix(), 10)
	}
	base := filepath.Join(dir, fmt.Sprintf("session_%s", name))
	result := &ExportResult{Files: []string{}}

	var (
		data []byte
		err  error
	)
	switch f {
	case Markdown:
		var cover string
		if imageURL := coverURL(s); imageURL != "" {
			if img, err := DownloadImage(imageURL); err == nil {
				cover = filepath.Base(base) + "_cover.jpg"
				path := filepath.Join(dir, cover)
				if err := os.WriteFile(path, img, 0644); err != nil {
					cover = ""
				} else {
					result.CoverImage = path
					result.Files = append(result.Files, path)
				}
			}
		}
		data, err = SessionToMarkdown(s, cover)
	case CSV:
		data, err = SongsToCSV(s.Output)
	case JSON:
		data, err = SessionToJSON(s)
	default:
		data, err = SessionToText(s)
	}
	if err != nil {
		return nil, err
	}

	path := base + "." + f.Extension()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s export: %w", f, err)
	}
	result.Files = append(result.Files, path)

	return result, nil
}

func coverURL(s models.Session) string {
	for _, m := range s.Input {
		if m.ImageURL != "" {
			return m.ImageURL
		}
	}
	return ""
}
