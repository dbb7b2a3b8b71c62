package tray

import (
	"testing"

	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/session"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(detecting bool) {
		got = append(got, detecting)
	})

	tr.handleToggle()
	tr.OnStatusChange(session.StatusDetecting)
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle requests = %v, want [true false]", got)
	}
	if tr.Status() != session.StatusDetecting {
		t.Errorf("Status() = %v", tr.Status())
	}
}

func TestTray_CallbacksOptional(t *testing.T) {
	tr := New()
	tr.handleToggle()
	tr.handleOpenUI()

	opened := false
	tr.OnOpenUI(func() { opened = true })
	tr.handleOpenUI()
	if !opened {
		t.Error("OnOpenUI callback not called")
	}
}

func TestHandsLine(t *testing.T) {
	tests := []struct {
		name  string
		hands []hands.Snapshot
		want  string
	}{
		{"no hands", nil, "Hands: none"},
		{"empty hands", []hands.Snapshot{{PlayerID: 1, Progress: "0/2"}}, "Hands: none"},
		{
			"complete and partial",
			[]hands.Snapshot{
				{PlayerID: 1, Complete: true, Progress: "2/2", Cards: []hands.CardSnapshot{{Card: "AS"}, {Card: "10H"}}},
				{PlayerID: 2, Progress: "0/2"},
				{PlayerID: 3, Progress: "1/2", Cards: []hands.CardSnapshot{{Card: "KD"}}},
			},
			"P1 AS 10H | P3 KD (1/2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandsLine(tt.hands); got != tt.want {
				t.Errorf("HandsLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTray_OnHandUpdate(t *testing.T) {
	tr := New()
	tr.OnHandUpdate(session.HandUpdate{Hands: []hands.Snapshot{
		{PlayerID: 2, Progress: "1/2", Cards: []hands.CardSnapshot{{Card: "QC"}}},
	}})

	if tr.Hands() != "P2 QC (1/2)" {
		t.Errorf("Hands() = %q", tr.Hands())
	}
}
