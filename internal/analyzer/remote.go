package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/dshills/edulint/internal/redact"
)

// RemoteAnalyzer posts each evaluation to an HTTP analyzer service.
type RemoteAnalyzer struct {
	apiURL string
	token  string
	client *http.Client
	// Redact scrubs secrets from the source before it leaves the process.
	Redact bool
}

// NewRemote validates rawURL. EDULINT_ANALYZER_TOKEN, when set, is sent
// as a bearer token.
func NewRemote(rawURL string) (*RemoteAnalyzer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("analyzer.NewRemote: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("analyzer.NewRemote: %q is not an http(s) URL", rawURL)
	}
	return &RemoteAnalyzer{
		apiURL: u.String(),
		token:  os.Getenv("EDULINT_ANALYZER_TOKEN"),
		client: &http.Client{},
	}, nil
}

func (r *RemoteAnalyzer) Name() string { return "remote:" + r.apiURL }

func (r *RemoteAnalyzer) Analyze(ctx context.Context, source string, enabled []string) (any, error) {
	if r.Redact {
		source = redact.Redact(source)
	}
	body, err := json.Marshal(Request{Source: source, EnabledRules: nonNil(enabled)})
	if err != nil {
		return nil, fmt.Errorf("remote: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: analyzer returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("remote: parse response: %w", err)
	}
	return result, nil
}
