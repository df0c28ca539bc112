package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementsUnmarshalVariants(t *testing.T) {
	raw := `[
		{"id": "1", "type": "input", "required": true},
		{"id": 2, "type": "button", "label": "Login"},
		{"id": "3", "type": "link", "label": "Click here", "href": "/help"},
		{"id": "4"},
		{"id": "5", "type": "carousel"}
	]`

	var es Elements
	require.NoError(t, json.Unmarshal([]byte(raw), &es))
	require.Len(t, es, 5)

	in, ok := es[0].(Input)
	require.True(t, ok)
	assert.True(t, in.Required)
	assert.Nil(t, in.Label)
	assert.Nil(t, in.Placeholder)

	btn, ok := es[1].(Button)
	require.True(t, ok)
	assert.Equal(t, "2", btn.ID)
	assert.Equal(t, "Login", Text(btn.Label))
	assert.False(t, btn.Enabled, "missing enabled key means disabled")

	link, ok := es[2].(Link)
	require.True(t, ok)
	assert.Equal(t, "/help", Text(link.Href))

	assert.Equal(t, Unknown{ID: "4"}, es[3])
	assert.Equal(t, Unknown{ID: "5", RawType: "carousel"}, es[4])
}

func TestElementsMarshalKeepsDisabledFlag(t *testing.T) {
	es := Elements{Button{ID: "9", Label: Ptr("Save")}}
	b, err := json.Marshal(es)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"9","type":"button","label":"Save","enabled":false}]`, string(b))
}

func TestElementsFilters(t *testing.T) {
	es := Elements{
		Input{ID: "1"},
		Button{ID: "2", Enabled: true},
		Link{ID: "3"},
		Input{ID: "4"},
		Unknown{ID: "5"},
	}
	assert.Len(t, es.Inputs(), 2)
	assert.Len(t, es.Buttons(), 1)
	assert.Len(t, es.Links(), 1)

	e, ok := es.Find("3")
	require.True(t, ok)
	assert.Equal(t, KindLink, e.Kind())
	_, ok = es.Find("42")
	assert.False(t, ok)
}

func TestPresent(t *testing.T) {
	assert.False(t, Present(nil))
	assert.False(t, Present(Ptr("")))
	assert.True(t, Present(Ptr("Email")))
}

func TestNewScreenCaptureCopies(t *testing.T) {
	errs := []string{"boom"}
	sc := NewScreenCapture("https://app.test", time.Unix(1700000000, 0), []string{"snapshot"}, nil, errs, nil, "Login page")
	errs[0] = "changed"

	assert.Equal(t, []string{"boom"}, sc.ErrorsDetected)
	assert.Equal(t, "1700000000", sc.Timestamp)
	assert.NotNil(t, sc.UXObservations)
	assert.Empty(t, sc.InteractiveElements)
}
