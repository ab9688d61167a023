package server

import (
	"errors"
	"testing"
)

func TestDecodeRecord(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"age":30}`, false},
		{"empty object", `{}`, false},
		{"nested", `{"a":{"b":[1,2]}}`, false},
		{"empty body", ``, true},
		{"malformed", `{"age":`, true},
		{"array", `[1,2]`, true},
		{"string", `"hi"`, true},
		{"number", `42`, true},
		{"null", `null`, true},
		{"trailing data", `{} {}`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := DecodeRecord([]byte(tc.body))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidBody) {
					t.Fatalf("expected ErrInvalidBody, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if record == nil {
				t.Fatalf("expected a record")
			}
		})
	}
}

func TestStatusMessage(t *testing.T) {
	if StatusMessage(404) != "Not found" {
		t.Fatalf("unexpected 404 message")
	}
	if StatusMessage(413) != "Request Entity Too Large" {
		t.Fatalf("unknown codes should fall back to the standard text, got %q", StatusMessage(413))
	}
	if StatusMessage(799) != "Unknown" {
		t.Fatalf("unexpected fallback %q", StatusMessage(799))
	}
}
