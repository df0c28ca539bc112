package exploration

import (
	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/types"
)

// DefaultProbeValue is typed into every input during exploration.
const DefaultProbeValue = "test_value"

// PlannedInteraction is a request the engine intends to send for one
// element of the current screen.
type PlannedInteraction struct {
	ElementID string
	Kind      types.ElementKind
	Request   string
}

// PlanInteractions fills every input first, then clicks every button and
// link, each group in element order. Unknown elements are skipped.
func PlanInteractions(elements types.Elements, probe string) []PlannedInteraction {
	var plan []PlannedInteraction
	for _, in := range elements.Inputs() {
		plan = append(plan, PlannedInteraction{ElementID: in.ID, Kind: types.KindInput, Request: browser.FillRequest(in.ID, probe)})
	}
	for _, e := range elements {
		switch e.(type) {
		case types.Button, types.Link:
			plan = append(plan, PlannedInteraction{ElementID: e.ElementID(), Kind: e.Kind(), Request: browser.ClickRequest(e.ElementID())})
		}
	}
	return plan
}
