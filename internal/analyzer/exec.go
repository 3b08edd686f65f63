package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExecAnalyzer runs an external program per evaluation. The program reads
// a JSON Request on stdin and writes a JSON list of records to stdout.
type ExecAnalyzer struct {
	path string
	args []string
}

// NewExec resolves the program named by the first field of cmdline.
func NewExec(cmdline string) (*ExecAnalyzer, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("analyzer.NewExec: empty command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("analyzer.NewExec: %w", err)
	}
	return &ExecAnalyzer{path: path, args: fields[1:]}, nil
}

func (e *ExecAnalyzer) Name() string { return "exec:" + e.path }

func (e *ExecAnalyzer) Analyze(ctx context.Context, source string, enabled []string) (any, error) {
	payload, err := json.Marshal(Request{Source: source, EnabledRules: nonNil(enabled)})
	if err != nil {
		return nil, fmt.Errorf("exec: marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.path, e.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("exec: %w", err)
		}
		return nil, fmt.Errorf("exec: %w: %s", err, msg)
	}

	var result any
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("exec: parse output: %w", err)
	}
	return result, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
