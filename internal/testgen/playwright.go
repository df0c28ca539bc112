package testgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"
)

// GeneratedFile is a rendered test file.
type GeneratedFile struct {
	Suite       string    `json:"suite"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	Content     string    `json:"content"`
	CaseIDs     []string  `json:"case_ids"`
	GeneratedAt time.Time `json:"generated_at"`
}

var playwrightTmpl = template.Must(template.New("spec").Funcs(template.FuncMap{"action": playwrightAction}).Parse(`import { test, expect } from '@playwright/test';

// {{.Description}}
test.describe('{{js .Name}}', () => {
{{- range .Cases}}
  test{{if not .AutomationFeasible}}.fixme{{end}}('{{js .ID}}: {{js .Description}}', async ({ page }) => {
{{- if .Source.URL}}
    await page.goto('{{js .Source.URL}}');
{{- end}}
{{- range $i, $s := .Steps}}
    // {{$s}}
{{- end}}
{{- with action .}}
    {{.}}
{{- end}}
{{- range .ExpectedResults}}
    // expect: {{.}}
{{- end}}
  });
{{end -}}
});
`))

// playwrightAction is the locator call for element-derived cases, empty
// for the rest.
func playwrightAction(tc TestCase) string {
	label := template.JSEscapeString(tc.Source.Label)
	switch tc.Source.Kind {
	case SourceButton:
		if label == "" {
			return fmt.Sprintf("// element @e%s has no accessible name", tc.Source.Ref)
		}
		return fmt.Sprintf("await page.getByRole('button', { name: '%s' }).click();", label)
	case SourceInput:
		if label == "" {
			return fmt.Sprintf("// element @e%s has no label to locate it by", tc.Source.Ref)
		}
		return fmt.Sprintf("await page.getByLabel('%s').fill('test_value');", label)
	}
	return ""
}

// RenderPlaywright renders a suite as a Playwright spec, one test per case
// in execution order. Cases that need human judgment become test.fixme.
func RenderPlaywright(suite TestSuite) (string, error) {
	byID := make(map[string]TestCase, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		byID[tc.ID] = tc
	}
	ordered := make([]TestCase, 0, len(suite.TestCases))
	for _, id := range suite.ExecutionOrder {
		if tc, ok := byID[id]; ok {
			ordered = append(ordered, tc)
		}
	}

	var buf bytes.Buffer
	err := playwrightTmpl.Execute(&buf, struct {
		Name        string
		Description string
		Cases       []TestCase
	}{suite.Name, suite.Description, ordered})
	if err != nil {
		return "", fmt.Errorf("failed to render playwright spec: %w", err)
	}
	return buf.String(), nil
}

// SpecFileName derives a file name such as login-flow-regression.spec.ts.
func SpecFileName(suiteName string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(suiteName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "regression"
	}
	return name + ".spec.ts"
}

// WritePlaywright renders the suite into dir.
func WritePlaywright(dir string, suite TestSuite, now time.Time) (*GeneratedFile, error) {
	content, err := RenderPlaywright(suite)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create test directory: %w", err)
	}

	name := SpecFileName(suite.Name)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return &GeneratedFile{
		Suite:       suite.Name,
		FileName:    name,
		FilePath:    path,
		Content:     content,
		CaseIDs:     append([]string{}, suite.ExecutionOrder...),
		GeneratedAt: now,
	}, nil
}
