package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuilders(t *testing.T) {
	assert.Equal(t, "open https://app.test/login", OpenRequest("https://app.test/login"))
	assert.Equal(t, "snapshot", SnapshotRequest())
	assert.Equal(t, "click @e3", ClickRequest("3"))
	assert.Equal(t, `fill @e1 "test_value"`, FillRequest("1", "test_value"))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    Command
		wantErr bool
	}{
		{"open", "open https://app.test", Command{Verb: VerbOpen, URL: "https://app.test"}, false},
		{"snapshot", "snapshot", Command{Verb: VerbSnapshot}, false},
		{"click", "click @e12", Command{Verb: VerbClick, ElementID: "12"}, false},
		{"fill", `fill @e1 "hello world"`, Command{Verb: VerbFill, ElementID: "1", Value: "hello world"}, false},
		{"fill unquoted", "fill @e1 plain", Command{Verb: VerbFill, ElementID: "1", Value: "plain"}, false},
		{"open without url", "open", Command{}, true},
		{"click without ref", "click 3", Command{}, true},
		{"click empty ref", "click @e", Command{}, true},
		{"unknown verb", "scroll down", Command{}, true},
		{"empty", "", Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFillValueWithQuotesSurvivesParsing(t *testing.T) {
	value := `say "hi" \ bye`
	cmd, err := ParseCommand(FillRequest("7", value))
	require.NoError(t, err)
	assert.Equal(t, value, cmd.Value)
	assert.Equal(t, "7", cmd.ElementID)
}

func TestResultHelpers(t *testing.T) {
	assert.True(t, Result{Status: StatusSuccess, Outcome: NavigationOccurred}.Navigated())
	assert.False(t, Result{Status: StatusSuccess, Outcome: NoChange}.Navigated())
	assert.False(t, Result{Status: StatusError, Outcome: NavigationOccurred}.Navigated())

	f := Failure("boom %d", 1)
	assert.False(t, f.OK())
	assert.Equal(t, "boom 1", f.Message)
}

func TestNormalizeAndResolveURL(t *testing.T) {
	assert.Equal(t, "https://app.test/dashboard", NormalizeURL("https://app.test/dashboard/#top"))
	assert.Equal(t, "https://app.test", NormalizeURL("https://app.test/"))
	assert.Equal(t, "https://app.test/reset", ResolveURL("https://app.test/login", "/reset"))
	assert.Equal(t, "https://app.test/a/b", ResolveURL("https://app.test/a/", "b"))
}
