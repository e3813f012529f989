package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listgraph/listgraph/pkg/config"
	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/pipeline"
	"github.com/listgraph/listgraph/pkg/render"
	"github.com/listgraph/listgraph/pkg/schema"
	"github.com/listgraph/listgraph/pkg/session"
)

// fakeGen simulates the pipeline without network or graphviz.
type fakeGen struct {
	err error
}

func (f *fakeGen) Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	artifact := []byte("png-bytes")
	if opts.Output != "" {
		if err := render.WriteFile(opts.Output, artifact); err != nil {
			return nil, err
		}
	}
	result := &pipeline.Result{
		Model:    schema.Build([]schema.List{{ID: "l1", DisplayName: "Orders"}}, nil),
		Artifact: artifact,
		Path:     opts.Output,
	}
	result.Stats.ListCount = 1
	return result, nil
}

func newTestServer(t *testing.T, genErr error) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.OutputDir = t.TempDir()

	srv, err := NewServer(cfg, session.NewMemoryStore(), nil)
	require.NoError(t, err)
	srv.newGen = func(token string) (generator, error) {
		if token == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "access token cannot be empty")
		}
		return &fakeGen{err: genErr}, nil
	}
	return srv
}

// client returns an http client that keeps cookies and does not follow
// redirects, so tests can assert on Location headers.
func client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestIndexPage(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `action="/generate"`)
}

func TestGenerateSuccessFlow(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Router())
	defer ts.Close()
	c := client(t)

	resp, err := c.PostForm(ts.URL+"/generate", url.Values{
		"token":   {"tok"},
		"site_id": {"site-a"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/results", resp.Header.Get("Location"))

	resp, err = c.Get(ts.URL + "/results")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Diagram generated.")
	assert.Contains(t, string(body), "/diagrams/")
	assert.Contains(t, string(body), "site-a")

	// The linked diagram is servable.
	page := string(body)
	start := strings.Index(page, "/diagrams/")
	require.GreaterOrEqual(t, start, 0)
	end := strings.IndexByte(page[start:], '"')
	diagramURL := page[start : start+end]

	resp, err = c.Get(ts.URL + diagramURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestGenerateMissingFields(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Router())
	defer ts.Close()
	c := client(t)

	resp, err := c.PostForm(ts.URL+"/generate", url.Values{"token": {"tok"}})
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, err = c.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Both token and site id are required.")
	assert.Contains(t, string(body), `class="flash error"`)
}

func TestGenerateFailureShowsErrorFlash(t *testing.T) {
	genErr := errors.New(errors.ErrCodeUnauthorized, "graph api rejected the token: expired")
	ts := httptest.NewServer(newTestServer(t, genErr).Router())
	defer ts.Close()
	c := client(t)

	resp, err := c.PostForm(ts.URL+"/generate", url.Values{
		"token":   {"tok"},
		"site_id": {"site-a"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, err = c.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "graph api rejected the token: expired")
}

func TestResultsWithoutSessionRedirects(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Router())
	defer ts.Close()
	c := client(t)

	resp, err := c.Get(ts.URL + "/results")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestDownloadRejectsBadNames(t *testing.T) {
	srv := newTestServer(t, nil)
	// Plant a file that must not be reachable through the handler.
	require.NoError(t, os.WriteFile(srv.cfg.Server.OutputDir+"/secret.txt", []byte("x"), 0o644))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, name := range []string{"secret.txt", "..%2Fsecret.txt", "no-such.png"} {
		resp, err := http.Get(ts.URL + "/diagrams/" + name)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "name %q", name)
	}
}
