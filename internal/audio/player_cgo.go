//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate = beep.SampleRate(44100)
)

// speakerPlayer plays mp3 clips through the shared beep speaker.
type speakerPlayer struct {
	mu       sync.Mutex
	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
}

// NewSpeakerPlayer initializes the speaker once per process and returns a player on it.
func NewSpeakerPlayer() (Player, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	if speakerErr != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", speakerErr)
	}
	return &speakerPlayer{}, nil
}

func (p *speakerPlayer) Play(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("failed to decode preview: %w", err)
	}

	p.streamer = streamer
	resampled := beep.Resample(4, format.SampleRate, speakerRate, streamer)
	p.ctrl = &beep.Ctrl{Streamer: resampled}

	speaker.Play(p.ctrl)
	return nil
}

func (p *speakerPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
}

func (p *speakerPlayer) Rewind() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()
	return p.streamer.Seek(0)
}

func (p *speakerPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked stops playback (must be called with lock held).
func (p *speakerPlayer) stopLocked() {
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		p.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
