package browser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/lance13c/auditor/internal/logging"
)

// CommandBackend runs an external automation CLI once per request. The
// request words become arguments and the program's stdout is the JSON reply,
// e.g. `agent-browser click @e3`.
type CommandBackend struct {
	Binary  string
	Timeout time.Duration
}

// DefaultAutomationBinary is the CLI used when none is configured.
const DefaultAutomationBinary = "agent-browser"

// Execute implements Backend.
func (b CommandBackend) Execute(ctx context.Context, request string) ([]byte, error) {
	cmd, err := ParseCommand(request)
	if err != nil {
		return nil, err
	}

	binary := b.Binary
	if binary == "" {
		binary = DefaultAutomationBinary
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := commandArgs(cmd)
	var stdout, stderr bytes.Buffer
	proc := exec.CommandContext(ctx, binary, args...)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	logging.Debug("exec %s %s", binary, strings.Join(args, " "))
	if err := proc.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s %s: %s", binary, cmd.Verb, msg)
	}
	return stdout.Bytes(), nil
}

// commandArgs splits a parsed command into argv so fill values with spaces
// survive intact.
func commandArgs(cmd Command) []string {
	switch cmd.Verb {
	case VerbOpen:
		return []string{string(VerbOpen), cmd.URL}
	case VerbClick:
		return []string{string(VerbClick), refPrefix + cmd.ElementID}
	case VerbFill:
		return []string{string(VerbFill), refPrefix + cmd.ElementID, cmd.Value}
	default:
		return []string{string(cmd.Verb)}
	}
}
