package exploration

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/types"
)

// State is a session's lifecycle position: Created, then Exploring, then
// Completed.
type State string

const (
	StateCreated   State = "created"
	StateExploring State = "exploring"
	StateCompleted State = "completed"
)

// InteractionRecord is one executed click or fill and what came of it.
type InteractionRecord struct {
	ScreenURL   string               `json:"screen_url"`
	Request     string               `json:"request"`
	Status      browser.Status       `json:"status"`
	Outcome     browser.ClickOutcome `json:"outcome,omitempty"`
	Destination string               `json:"destination,omitempty"`
	Message     string               `json:"message,omitempty"`
}

// Session is the record of one exploration run. Only the engine mutates it:
// screens and interactions are append-only and the counters only grow.
type Session struct {
	StartURL           string
	SessionID          string
	ScreensVisited     []types.ScreenCapture
	TotalInteractions  int
	CoveragePercentage float64
	State              State
	Interactions       []InteractionRecord
	StartedAt          time.Time
	CompletedAt        time.Time
}

// NewSessionID renders qa_audit_<unix>_<random suffix>.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("qa_audit_%d_%s", now.Unix(), uuid.NewString()[:8])
}

func newSession(startURL string, now time.Time) *Session {
	return &Session{
		StartURL:       startURL,
		SessionID:      NewSessionID(now),
		ScreensVisited: []types.ScreenCapture{},
		Interactions:   []InteractionRecord{},
		State:          StateCreated,
	}
}

func (s *Session) begin(now time.Time) {
	s.State = StateExploring
	s.StartedAt = now
}

func (s *Session) addScreen(sc types.ScreenCapture) {
	s.ScreensVisited = append(s.ScreensVisited, sc)
}

func (s *Session) addInteraction(r InteractionRecord) {
	s.TotalInteractions++
	s.Interactions = append(s.Interactions, r)
}

func (s *Session) complete(now time.Time) {
	s.CoveragePercentage = Coverage(len(s.ScreensVisited))
	s.State = StateCompleted
	s.CompletedAt = now
}

// Coverage is the coverage estimate for a number of explored screens:
// 20 points per screen, capped at 100.
func Coverage(screens int) float64 {
	return math.Min(100, 20*float64(screens))
}
