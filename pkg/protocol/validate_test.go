package protocol

import (
	"strings"
	"testing"
)

func TestDecodeRequestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Request
	}{
		{"keystroke default n", `{"type":"keystroke"}`, Request{Type: TypeKeystroke, N: 1}},
		{"keystroke n", `{"type":"keystroke","n":5}`, Request{Type: TypeKeystroke, N: 5}},
		{"text change", `{"type":"textChange","added":3,"removed":0}`, Request{Type: TypeTextChange, Added: 3}},
		{"reset", `{"type":"reset"}`, Request{Type: TypeReset}},
		{"spawn", `{"type":"spawnFish"}`, Request{Type: TypeSpawnFish}},
		{"stats", `{"type":"stats"}`, Request{Type: TypeStats}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest([]byte(tt.in))
			if err != nil {
				t.Fatalf("DecodeRequest(%s) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeRequestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"not json", `{type:`, "invalid json"},
		{"unknown type", `{"type":"dance"}`, "invalid request"},
		{"missing type", `{"n":1}`, "invalid request"},
		{"negative n", `{"type":"keystroke","n":-1}`, "invalid request"},
		{"text change without fields", `{"type":"textChange"}`, "invalid request"},
		{"extra field", `{"type":"reset","force":true}`, "invalid request"},
		{"reset with n", `{"type":"reset","n":2}`, "invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.in))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeRequest(%s) = %v, want error containing %q", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	if err := ValidateEvent(Event{Type: TypeStats, TotalKeystrokes: 12, KeystrokeCount: 12, FishEaten: 1}); err != nil {
		t.Errorf("stats event should be valid: %v", err)
	}
	if err := ValidateEvent(Event{Type: TypeError, Message: "bad"}); err != nil {
		t.Errorf("error event should be valid: %v", err)
	}
	if err := ValidateEvent(Event{Type: "bogus"}); err == nil {
		t.Error("unknown event type should be rejected")
	}
	if err := ValidateEvent(Event{Type: TypeFishEaten, Count: -1}); err == nil {
		t.Error("negative count should be rejected")
	}
}
