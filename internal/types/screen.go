package types

import (
	"strconv"
	"time"
)

// ScreenCapture is the record of one page visit. Build it with
// NewScreenCapture; it is not changed afterwards.
type ScreenCapture struct {
	URL                 string   `json:"url"`
	Timestamp           string   `json:"timestamp"`
	ActionsTaken        []string `json:"actions_taken"`
	InteractiveElements Elements `json:"interactive_elements"`
	ErrorsDetected      []string `json:"errors_detected"`
	UXObservations      []string `json:"ux_observations"`
	ScreenshotSummary   string   `json:"screenshot_summary"`
}

// NewScreenCapture copies every slice so later changes by the caller do not
// leak into the capture.
func NewScreenCapture(url string, at time.Time, actions []string, elements Elements, errs, observations []string, summary string) ScreenCapture {
	return ScreenCapture{
		URL:                 url,
		Timestamp:           strconv.FormatInt(at.Unix(), 10),
		ActionsTaken:        cloneStrings(actions),
		InteractiveElements: append(Elements{}, elements...),
		ErrorsDetected:      cloneStrings(errs),
		UXObservations:      cloneStrings(observations),
		ScreenshotSummary:   summary,
	}
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}
