package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEnriched MsgKind = iota
	MsgProgressUpdate
	MsgRecommendDone
	MsgFailureNotice
	MsgHistoryLoaded
	MsgHistoryCleared
	MsgOpened
)

type enrichedData struct {
	song     models.Song
	meta     models.SongMetadata
	degraded bool
	err      error
}

type recommendData struct {
	result *tasks.RecommendResult
	err    error
}

type historyData struct {
	sessions []models.Session
	err      error
}

// enrichedMsg is the constructor for [MsgEnriched]
func enrichedMsg(song models.Song, meta models.SongMetadata, degraded bool, err error) Msg {
	return Msg{kind: MsgEnriched, data: enrichedData{song, meta, degraded, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// recommendDoneMsg is the constructor for [MsgRecommendDone]
func recommendDoneMsg(result *tasks.RecommendResult, err error) Msg {
	return Msg{kind: MsgRecommendDone, data: recommendData{result, err}}
}

// failureNoticeMsg is the constructor for [MsgFailureNotice]; seq identifies the failed request.
func failureNoticeMsg(seq int) Msg {
	return Msg{kind: MsgFailureNotice, data: seq}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(sessions []models.Session, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyData{sessions, err}}
}

// historyClearedMsg is the constructor for [MsgHistoryCleared]
func historyClearedMsg(err error) Msg {
	return Msg{kind: MsgHistoryCleared, data: err}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}
