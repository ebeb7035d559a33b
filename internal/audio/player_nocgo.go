//go:build !((linux && cgo) || windows || darwin)

package audio

// Available indicates whether audio playback is supported in this build.
// Audio on linux requires cgo for the native sound libraries.
const Available = false

// silentPlayer accepts every call and produces no sound.
type silentPlayer struct{}

// NewSpeakerPlayer returns a silent player when native audio is unavailable.
func NewSpeakerPlayer() (Player, error) {
	return silentPlayer{}, nil
}

func (silentPlayer) Play([]byte) error { return nil }
func (silentPlayer) Pause()            {}
func (silentPlayer) Rewind() error     { return nil }
func (silentPlayer) Stop()             {}
