package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songrec/internal/shared"
)

// DefaultCompactWidth is the terminal width at or below which previews are disabled.
const DefaultCompactWidth = 80

const maxPreviewBytes = 10 << 20

// Player is an audio output that holds one loaded clip at a time.
type Player interface {
	// Play replaces the current clip with data and starts it from the beginning.
	Play(data []byte) error
	// Pause halts playback, keeping the clip loaded.
	Pause()
	// Rewind moves the playhead back to zero.
	Rewind() error
	// Stop releases the clip.
	Stop()
}

// PlayerFactory constructs the process-wide player on first use.
type PlayerFactory func() (Player, error)

// Fetcher downloads a preview clip.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Options configures a [Preview].
type Options struct {
	Enabled      bool
	CompactWidth int
	Factory      PlayerFactory
	Fetch        Fetcher
	Logger       *log.Logger
}

// Preview plays hover previews through a lazily created [Player].
type Preview struct {
	mu sync.Mutex

	enabled      bool
	compactWidth int
	width        int
	factory      PlayerFactory
	fetch        Fetcher
	logger       *log.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	player     Player
	playing    bool
	generation uint64
	current    string
	closed     bool
	loads      sync.WaitGroup
}

// NewPreview creates a preview controller. A nil Factory uses the platform player;
// a nil Fetch downloads with [http.DefaultClient].
func NewPreview(opts Options) *Preview {
	if opts.CompactWidth <= 0 {
		opts.CompactWidth = DefaultCompactWidth
	}
	if opts.Factory == nil {
		opts.Factory = NewSpeakerPlayer
	}
	if opts.Fetch == nil {
		opts.Fetch = HTTPFetcher(http.DefaultClient)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Preview{
		ctx:          ctx,
		cancel:       cancel,
		enabled:      opts.Enabled,
		compactWidth: opts.CompactWidth,
		factory:      opts.Factory,
		fetch:        opts.Fetch,
		logger:       opts.Logger,
	}
}

// Active reports whether previews may play at the current width.
//
// A width of zero means no size has been reported yet and counts as wide.
func (p *Preview) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeLocked()
}

func (p *Preview) activeLocked() bool {
	if !p.enabled || p.closed {
		return false
	}
	return p.width == 0 || p.width > p.compactWidth
}

// Resize records the terminal width and silences playback when it becomes compact.
func (p *Preview) Resize(width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	if !p.activeLocked() {
		p.endLocked()
	}
}

// HoverStart begins loading url in the background and plays it when ready.
//
// It does nothing when previews are inactive or url is empty.
func (p *Preview) HoverStart(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.activeLocked() || url == "" {
		return
	}
	if p.current == url {
		return
	}
	p.endLocked()
	p.current = url
	gen := p.generation
	ctx := p.ctx

	p.loads.Add(1)
	go func() {
		defer p.loads.Done()
		if err := p.load(ctx, gen, url); err != nil && ctx.Err() == nil {
			p.logger.Warn("preview failed", "url", url, "error", err)
		}
	}()
}

// Play loads url and starts playback, blocking until the clip is playing.
func (p *Preview) Play(ctx context.Context, url string) error {
	p.mu.Lock()
	if !p.activeLocked() {
		p.mu.Unlock()
		return nil
	}
	if url == "" {
		p.mu.Unlock()
		return fmt.Errorf("%w: song has no preview", shared.ErrInvalidArgument)
	}
	p.endLocked()
	p.current = url
	gen := p.generation
	p.mu.Unlock()

	return p.load(ctx, gen, url)
}

// HoverEnd pauses and rewinds the clip and drops any load still in flight.
func (p *Preview) HoverEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endLocked()
}

// Close stops playback and waits for background loads to settle.
func (p *Preview) Close() {
	p.mu.Lock()
	p.closed = true
	p.endLocked()
	player := p.player
	p.mu.Unlock()

	p.cancel()
	p.loads.Wait()

	if player != nil {
		player.Stop()
	}
}

func (p *Preview) endLocked() {
	p.generation++
	p.current = ""
	if p.player == nil || !p.playing {
		return
	}
	p.playing = false
	p.player.Pause()
	if err := p.player.Rewind(); err != nil {
		p.logger.Debug("rewind failed", "error", err)
	}
}

func (p *Preview) load(ctx context.Context, gen uint64, url string) error {
	data, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation || !p.activeLocked() {
		return nil
	}

	if p.player == nil {
		player, err := p.factory()
		if err != nil {
			return fmt.Errorf("failed to create audio player: %w", err)
		}
		p.player = player
	}

	if err := p.player.Play(data); err != nil {
		return err
	}
	p.playing = true
	return nil
}

// HTTPFetcher downloads previews with client.
func HTTPFetcher(client *http.Client) Fetcher {
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: preview returned status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read preview: %w", err)
		}
		if len(data) > maxPreviewBytes {
			return nil, errors.New("preview exceeds size limit")
		}
		return data, nil
	}
}
