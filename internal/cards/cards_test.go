package cards

import (
	"errors"
	"testing"

	"github.com/paulhankin/poker"
)

func TestParse(t *testing.T) {
	tests := []struct {
		label   string
		wantErr bool
	}{
		{label: "AS"},
		{label: "10H"},
		{label: "TH"},
		{label: "kd"},
		{label: " 2C "},
		{label: "QS"},
		{label: "1S", wantErr: true},
		{label: "11H", wantErr: true},
		{label: "AX", wantErr: true},
		{label: "A", wantErr: true},
		{label: "", wantErr: true},
		{label: "Joker", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			_, err := Parse(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownLabel) {
				t.Errorf("Parse(%q) error = %v, want ErrUnknownLabel", tt.label, err)
			}
		})
	}
}

func TestParse_Suits(t *testing.T) {
	tests := []struct {
		label string
		suit  poker.Suit
		rank  poker.Rank
	}{
		{"AC", poker.Club, 1},
		{"10D", poker.Diamond, 10},
		{"QH", poker.Heart, 12},
		{"KS", poker.Spade, 13},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c, err := Parse(tt.label)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.label, err)
			}
			if c.Suit() != tt.suit || c.Rank() != tt.rank {
				t.Errorf("Parse(%q) = %v/%v, want %v/%v", tt.label, c.Suit(), c.Rank(), tt.suit, tt.rank)
			}
		})
	}
}

func TestParse_Distinct(t *testing.T) {
	seen := make(map[any]string)
	for _, suit := range []string{"C", "D", "H", "S"} {
		for _, rank := range []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"} {
			label := rank + suit
			card, err := Parse(label)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", label, err)
			}
			if prev, ok := seen[card]; ok {
				t.Fatalf("Parse(%q) collides with %q", label, prev)
			}
			seen[card] = label
		}
	}
	if len(seen) != 52 {
		t.Errorf("distinct cards = %d, want 52", len(seen))
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"as":  "AS",
		"TH":  "10H",
		"10h": "10H",
		" qc": "QC",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("JD") {
		t.Error("Valid(JD) = false, want true")
	}
	if Valid("ZZ") {
		t.Error("Valid(ZZ) = true, want false")
	}
}
