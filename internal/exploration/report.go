package exploration

import "github.com/lance13c/auditor/internal/types"

// Report is the exploration summary handed to the report assembler.
type Report struct {
	SessionID           string                `json:"session_id"`
	StartURL            string                `json:"start_url"`
	ScreensExplored     int                   `json:"screens_explored"`
	TotalInteractions   int                   `json:"total_interactions"`
	CoveragePercentage  float64               `json:"coverage_percentage"`
	Screens             []types.ScreenCapture `json:"screens"`
	Anomalies           []string              `json:"anomalies"`
	UXObservations      []string              `json:"ux_observations"`
	Interactions        []InteractionRecord   `json:"interactions"`
	ExplorationComplete bool                  `json:"exploration_complete"`
}

// GenerateReport flattens a session's per-screen errors and observations in
// screen order.
func GenerateReport(s *Session) Report {
	r := Report{
		SessionID:           s.SessionID,
		StartURL:            s.StartURL,
		ScreensExplored:     len(s.ScreensVisited),
		TotalInteractions:   s.TotalInteractions,
		CoveragePercentage:  s.CoveragePercentage,
		Screens:             append([]types.ScreenCapture{}, s.ScreensVisited...),
		Anomalies:           []string{},
		UXObservations:      []string{},
		Interactions:        append([]InteractionRecord{}, s.Interactions...),
		ExplorationComplete: s.State == StateCompleted,
	}
	for _, sc := range s.ScreensVisited {
		r.Anomalies = append(r.Anomalies, sc.ErrorsDetected...)
		r.UXObservations = append(r.UXObservations, sc.UXObservations...)
	}
	return r
}
