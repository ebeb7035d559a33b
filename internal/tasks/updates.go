package tasks

import (
	"fmt"

	"github.com/desertthunder/songrec/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Enrich Phase = iota
	Recommend
	SaveHistory
)

func (p Phase) String() string {
	switch p {
	case Enrich:
		return "enrich"
	case Recommend:
		return "recommend"
	case SaveHistory:
		return "save_history"
	default:
		return ""
	}
}

func enrichUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching metadata: %s", step, total, song.Name),
	}
}

func enrichDoneUpdate(step, total int, res EnrichResult) ProgressUpdate {
	mark := "✓"
	if res.Degraded {
		mark = "~"
	}
	if res.Err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %d", step, total, mark, res.ID),
		Data:    res,
	}
}

func requestingUpdate(session models.Session) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    1,
		Total:   3,
		Message: fmt.Sprintf("Requesting %d recommendations for %d seeds...", session.NumRecs, len(session.Input)),
	}
}

func receivedUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Received %d recommendations", n),
	}
}

func savingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveHistory,
		Step:    3,
		Total:   3,
		Message: "Saving session to history...",
	}
}

func savedUpdate(session models.Session, err error) ProgressUpdate {
	msg := fmt.Sprintf("Session %s saved", session.ID)
	if err != nil {
		msg = fmt.Sprintf("History not saved: %v", err)
	}
	return ProgressUpdate{
		Phase:   SaveHistory,
		Step:    3,
		Total:   3,
		Message: msg,
		Data:    session,
	}
}
