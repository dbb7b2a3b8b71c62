// Package cards maps recognizer labels such as "AS" or "10H" onto the 52-card domain.
package cards

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulhankin/poker"
)

// ErrUnknownLabel is returned for labels outside the 52-card domain.
var ErrUnknownLabel = errors.New("unknown card label")

var suits = map[byte]poker.Suit{
	'C': poker.Club,
	'D': poker.Diamond,
	'H': poker.Heart,
	'S': poker.Spade,
}

var ranks = map[string]poker.Rank{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "10": 10, "T": 10, "J": 11, "Q": 12, "K": 13,
}

// Normalize upper-cases and trims a label and spells ten as "10".
func Normalize(label string) string {
	l := strings.ToUpper(strings.TrimSpace(label))
	if strings.HasPrefix(l, "T") {
		l = "10" + l[1:]
	}
	return l
}

// Parse converts a label to a poker card.
func Parse(label string) (poker.Card, error) {
	var none poker.Card

	l := Normalize(label)
	if len(l) < 2 {
		return none, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}

	suit, ok := suits[l[len(l)-1]]
	if !ok {
		return none, fmt.Errorf("%w: %q has no suit", ErrUnknownLabel, label)
	}
	rank, ok := ranks[l[:len(l)-1]]
	if !ok {
		return none, fmt.Errorf("%w: %q has no rank", ErrUnknownLabel, label)
	}

	card, err := poker.MakeCard(suit, rank)
	if err != nil {
		return none, fmt.Errorf("%w: %w", ErrUnknownLabel, err)
	}
	return card, nil
}

// Valid reports whether label names one of the 52 cards.
func Valid(label string) bool {
	_, err := Parse(label)
	return err == nil
}
