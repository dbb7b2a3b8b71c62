package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_AppendsHand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hands.log")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	req := `{"event":"hand_complete","session_id":"s1","config":{"path":"` + path + `"},` +
		`"data":{"player_id":2,"cards":[{"card":"AS"},{"card":"KD"}],"complete":true}}`
	for i := 0; i < 2; i++ {
		if err := run(strings.NewReader(req), now); err != nil {
			t.Fatalf("run() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	want := "2024-03-01T12:00:00Z session=s1 player=2 cards=AS,KD"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}

func TestRun_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  string
	}{
		{"bad json", `{`},
		{"other event", `{"event":"status","data":{}}`},
		{"bad hand", `{"event":"hand_complete","config":{"path":"x"},"data":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(strings.NewReader(tt.req), time.Now()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
