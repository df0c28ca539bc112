package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ElementKind is the wire value of an element's "type" key.
type ElementKind string

const (
	KindInput   ElementKind = "input"
	KindButton  ElementKind = "button"
	KindLink    ElementKind = "link"
	KindUnknown ElementKind = "unknown"
)

// Element is one interactive control reported by a page snapshot. The set of
// implementations is closed: Input, Button, Link and Unknown.
type Element interface {
	ElementID() string
	Kind() ElementKind
	isElement()
}

// Input is a text-like form control.
type Input struct {
	ID          string
	Label       *string
	Required    bool
	Placeholder *string
}

// Button is a clickable control. A button reported without an "enabled" key
// is treated as disabled.
type Button struct {
	ID             string
	Label          *string
	Enabled        bool
	DisabledReason *string
	Primary        bool
}

// Link is an anchor.
type Link struct {
	ID    string
	Label *string
	Href  *string
}

// Unknown holds an element whose type was missing or unrecognized. Analyzers
// and planners skip it.
type Unknown struct {
	ID      string
	RawType string
}

func (e Input) ElementID() string   { return e.ID }
func (e Button) ElementID() string  { return e.ID }
func (e Link) ElementID() string    { return e.ID }
func (e Unknown) ElementID() string { return e.ID }

func (Input) Kind() ElementKind   { return KindInput }
func (Button) Kind() ElementKind  { return KindButton }
func (Link) Kind() ElementKind    { return KindLink }
func (Unknown) Kind() ElementKind { return KindUnknown }

func (Input) isElement()   {}
func (Button) isElement()  {}
func (Link) isElement()    {}
func (Unknown) isElement() {}

// Text returns the pointed-to string or "".
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Present reports whether an optional string is set and non-empty.
func Present(s *string) bool {
	return s != nil && *s != ""
}

// Ptr returns a pointer to s. Handy for building elements in code.
func Ptr(s string) *string {
	return &s
}

// LabelOf returns the element's label, or "" when it has none.
func LabelOf(e Element) string {
	switch v := e.(type) {
	case Input:
		return Text(v.Label)
	case Button:
		return Text(v.Label)
	case Link:
		return Text(v.Label)
	}
	return ""
}

// ElementData is the flat wire form of an element, shared by the JSON
// protocol and YAML site maps.
type ElementData struct {
	ID             FlexID  `json:"id" yaml:"id"`
	Type           string  `json:"type,omitempty" yaml:"type,omitempty"`
	Label          *string `json:"label,omitempty" yaml:"label,omitempty"`
	Required       bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Enabled        *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Placeholder    *string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Href           *string `json:"href,omitempty" yaml:"href,omitempty"`
	DisabledReason *string `json:"disabled_reason,omitempty" yaml:"disabled_reason,omitempty"`
	Primary        bool    `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Element converts wire data into the typed variant.
func (d ElementData) Element() Element {
	id := string(d.ID)
	switch ElementKind(strings.ToLower(d.Type)) {
	case KindInput:
		return Input{ID: id, Label: d.Label, Required: d.Required, Placeholder: d.Placeholder}
	case KindButton:
		return Button{
			ID:             id,
			Label:          d.Label,
			Enabled:        d.Enabled != nil && *d.Enabled,
			DisabledReason: d.DisabledReason,
			Primary:        d.Primary,
		}
	case KindLink:
		return Link{ID: id, Label: d.Label, Href: d.Href}
	default:
		return Unknown{ID: id, RawType: d.Type}
	}
}

// DataOf converts a typed element back to wire data.
func DataOf(e Element) ElementData {
	switch v := e.(type) {
	case Input:
		return ElementData{ID: FlexID(v.ID), Type: string(KindInput), Label: v.Label, Required: v.Required, Placeholder: v.Placeholder}
	case Button:
		enabled := v.Enabled
		return ElementData{ID: FlexID(v.ID), Type: string(KindButton), Label: v.Label, Enabled: &enabled, DisabledReason: v.DisabledReason, Primary: v.Primary}
	case Link:
		return ElementData{ID: FlexID(v.ID), Type: string(KindLink), Label: v.Label, Href: v.Href}
	case Unknown:
		return ElementData{ID: FlexID(v.ID), Type: v.RawType}
	}
	return ElementData{}
}

// FlexID accepts element ids sent either as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("element id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// Elements is an ordered element list with a JSON codec for the variant.
type Elements []Element

func (es Elements) MarshalJSON() ([]byte, error) {
	data := make([]ElementData, 0, len(es))
	for _, e := range es {
		data = append(data, DataOf(e))
	}
	return json.Marshal(data)
}

func (es *Elements) UnmarshalJSON(b []byte) error {
	var data []ElementData
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("failed to decode elements: %w", err)
	}
	out := make(Elements, 0, len(data))
	for _, d := range data {
		out = append(out, d.Element())
	}
	*es = out
	return nil
}

// Inputs returns the input elements in order.
func (es Elements) Inputs() []Input {
	var out []Input
	for _, e := range es {
		if v, ok := e.(Input); ok {
			out = append(out, v)
		}
	}
	return out
}

// Buttons returns the button elements in order.
func (es Elements) Buttons() []Button {
	var out []Button
	for _, e := range es {
		if v, ok := e.(Button); ok {
			out = append(out, v)
		}
	}
	return out
}

// Links returns the link elements in order.
func (es Elements) Links() []Link {
	var out []Link
	for _, e := range es {
		if v, ok := e.(Link); ok {
			out = append(out, v)
		}
	}
	return out
}

// Find returns the element with the given id.
func (es Elements) Find(id string) (Element, bool) {
	for _, e := range es {
		if e.ElementID() == id {
			return e, true
		}
	}
	return nil, false
}
