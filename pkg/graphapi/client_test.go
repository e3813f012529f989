package graphapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/listgraph/listgraph/pkg/errors"
)

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"value": []}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Token: "tok123", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lists(context.Background(), "site-a"); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != acceptHeader {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.Code
	}{
		{
			name:     "Unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"code": "InvalidAuthenticationToken", "message": "Access token has expired."}}`,
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "Forbidden",
			status:   http.StatusForbidden,
			body:     `{"error": {"code": "accessDenied", "message": "Caller has no access."}}`,
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "NotFound",
			status:   http.StatusNotFound,
			body:     `{"error": {"message": "Requested site could not be found."}}`,
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "ServerError",
			status:   http.StatusInternalServerError,
			body:     "",
			wantCode: errors.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(Config{Token: "tok", BaseURL: srv.URL})
			if err != nil {
				t.Fatal(err)
			}

			_, err = c.Lists(context.Background(), "site-a")
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestUnauthorizedSurfacesUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": "InvalidAuthenticationToken", "message": "Access token has expired."}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Token: "tok", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Lists(context.Background(), "site-a")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := errors.UserMessage(err)
	if want := "Access token has expired."; !strings.Contains(msg, want) {
		t.Errorf("message %q does not contain upstream text %q", msg, want)
	}
	if want := "InvalidAuthenticationToken"; !strings.Contains(msg, want) {
		t.Errorf("message %q does not contain upstream code %q", msg, want)
	}
}
