// Package graphapi implements a read-only Microsoft Graph API client for
// SharePoint list and column metadata.
//
// The client is deliberately thin: one bearer token, one site per invocation,
// sequential paginated GETs, no retries and no response caching. Upstream
// failures map onto the structured error codes in [pkg/errors] so that the
// CLI and web front ends report them consistently.
package graphapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/listgraph/listgraph/pkg/errors"
)

// DefaultBaseURL is the production Microsoft Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// httpTimeout bounds individual metadata requests.
const httpTimeout = 10 * time.Second

// acceptHeader requests minimal OData metadata, matching what SharePoint
// returns fastest for schema reads.
const acceptHeader = "application/json;odata.metadata=minimal;odata.streaming=true;IEEE754Compatible=false;charset=utf-8"

// Config carries the per-invocation settings for a Graph API client.
// There is no module-level state: every fetch receives its own token and
// base URL through this value.
type Config struct {
	// Token is the OAuth bearer token used for every request.
	Token string

	// BaseURL overrides the Graph endpoint, mainly for tests.
	// Empty means DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the underlying client. Empty means a client
	// with a 10 second timeout.
	HTTPClient *http.Client
}

// Client performs authenticated GETs against the Graph API.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
}

// NewClient creates a Client from cfg. The token is required; everything else
// falls back to defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "access token cannot be empty")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: httpTimeout}
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimSuffix(base, "/"),
		headers: map[string]string{
			"Authorization": "Bearer " + cfg.Token,
			"Accept":        acceptHeader,
			"Content-Type":  "application/json",
		},
	}, nil
}

// get performs a single GET and JSON-decodes the response into v.
func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", url)
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "request %s failed", url)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response from %s", url)
	}
	return nil
}

// getPaged follows @odata.nextLink until the collection is exhausted,
// invoking page for each response. The loop is strictly sequential.
func (c *Client) getPaged(ctx context.Context, url string, page func(json.RawMessage) error) error {
	for url != "" {
		var body struct {
			Value    json.RawMessage `json:"value"`
			NextLink string          `json:"@odata.nextLink"`
		}
		if err := c.get(ctx, url, &body); err != nil {
			return err
		}
		if body.Value != nil {
			if err := page(body.Value); err != nil {
				return err
			}
		}
		url = body.NextLink
	}
	return nil
}

// checkStatus maps upstream HTTP statuses onto structured errors. Auth
// failures keep the upstream error body so it can be surfaced verbatim.
func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "graph api rejected the token: %s", upstreamMessage(resp))
	case http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "access denied by graph api: %s", upstreamMessage(resp))
	case http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found: %s", upstreamMessage(resp))
	default:
		return errors.New(errors.ErrCodeNetwork, "graph api returned status %d", resp.StatusCode)
	}
}

// upstreamMessage extracts the Graph error message from a failed response.
// Falls back to the raw body (truncated) when the error envelope is absent.
func upstreamMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		if envelope.Error.Code != "" {
			return fmt.Sprintf("%s (%s)", envelope.Error.Message, envelope.Error.Code)
		}
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(data))
}
