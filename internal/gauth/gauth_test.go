package gauth

import (
	"context"
	"testing"
)

func TestNewClient_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not json", "not-a-key"},
		{"wrong type", `{"type":"authorized_user"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(context.Background(), tt.key); err == nil {
				t.Error("NewClient() error = nil, want error")
			}
		})
	}
}
