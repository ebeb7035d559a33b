// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/songrec/internal/models"
)

// MockRecommender is a test double for [services.Recommender].
//
// FetchMetadata answers from Metadata and omits unknown ids. FetchRecommendations returns Recs.
// Set the Err fields to fail calls.
type MockRecommender struct {
	mu sync.Mutex

	Metadata    map[int]models.SongMetadata
	Recs        []models.SongMetadata
	MetadataErr error
	RecsErr     error

	MetadataCalls [][]int
	RecsCalls     []RecsCall
}

// RecsCall records the arguments of one FetchRecommendations call.
type RecsCall struct {
	Seeds  []int
	Genres []string
	Count  int
}

func (m *MockRecommender) FetchMetadata(ctx context.Context, ids []int) ([]models.SongMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetadataCalls = append(m.MetadataCalls, append([]int(nil), ids...))
	if m.MetadataErr != nil {
		return nil, m.MetadataErr
	}

	out := []models.SongMetadata{}
	for _, id := range ids {
		if meta, ok := m.Metadata[id]; ok {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (m *MockRecommender) FetchRecommendations(ctx context.Context, seeds []int, genres []string, count int) ([]models.SongMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecsCalls = append(m.RecsCalls, RecsCall{Seeds: append([]int(nil), seeds...), Genres: append([]string(nil), genres...), Count: count})
	if m.RecsErr != nil {
		return nil, m.RecsErr
	}
	out := make([]models.SongMetadata, len(m.Recs))
	copy(out, m.Recs)
	return out, nil
}

// Calls returns how many metadata and recommendation requests were made.
func (m *MockRecommender) Calls() (metadata, recs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.MetadataCalls), len(m.RecsCalls)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
