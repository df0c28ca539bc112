package ux

// Heuristic keys. The principle text is what lands in Issue.HeuristicViolated.
const (
	HeuristicVisibility        = "visibility"
	HeuristicMatchRealWorld    = "match_real_world"
	HeuristicUserControl       = "user_control"
	HeuristicConsistency       = "consistency"
	HeuristicErrorPrevention   = "error_prevention"
	HeuristicRecognition       = "recognition"
	HeuristicFlexibility       = "flexibility"
	HeuristicAesthetic         = "aesthetic"
	HeuristicErrorRecovery     = "error_recovery"
	HeuristicHelpDocumentation = "help_documentation"
)

// Heuristics is the usability heuristic table, keyed by short name.
var Heuristics = map[string]string{
	HeuristicVisibility:        "System status should be visible to users",
	HeuristicMatchRealWorld:    "System should match real-world conventions",
	HeuristicUserControl:       "Users should have control and freedom",
	HeuristicConsistency:       "Maintain consistency and standards",
	HeuristicErrorPrevention:   "Prevent errors before they occur",
	HeuristicRecognition:       "Recognition rather than recall",
	HeuristicFlexibility:       "Flexibility and efficiency of use",
	HeuristicAesthetic:         "Aesthetic and minimalist design",
	HeuristicErrorRecovery:     "Help users recognize and recover from errors",
	HeuristicHelpDocumentation: "Provide help and documentation",
}

// WCAGLabels is cited for unlabeled form controls.
const WCAGLabels = "WCAG 2.1 - Labels or Instructions"
