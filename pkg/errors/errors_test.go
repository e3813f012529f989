package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidSite, "bad site %q", "x")
	if err.Code != ErrCodeInvalidSite {
		t.Errorf("code = %s, want %s", err.Code, ErrCodeInvalidSite)
	}
	if err.Message != `bad site "x"` {
		t.Errorf("message = %q", err.Message)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeNetwork, cause, "fetch failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not found via errors.Is")
	}
	if got := err.Error(); got != "NETWORK_ERROR: fetch failed: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnauthorized, "no")
	wrapped := fmt.Errorf("outer: %w", err)

	if !Is(wrapped, ErrCodeUnauthorized) {
		t.Error("code not detected through wrapping")
	}
	if Is(wrapped, ErrCodeNetwork) {
		t.Error("wrong code matched")
	}
	if Is(stderrors.New("plain"), ErrCodeNetwork) {
		t.Error("plain error matched a code")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeForbidden, "access denied")); got != "access denied" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage plain = %q", got)
	}
}

func TestValidateSiteID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"Valid", "contoso.sharepoint.com,abc-123,def-456", false},
		{"Empty", "", true},
		{"PathTraversal", "../etc/passwd", true},
		{"Slash", "a/b", true},
		{"Space", "a b", true},
		{"QueryInjection", "site?x=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSiteID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSiteID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
