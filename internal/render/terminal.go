// Package render prints session events to a terminal for headless runs.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/session"
)

// TerminalSink writes a line per detection result and a hands table per hand update.
type TerminalSink struct {
	session.NopSink

	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSink creates a sink writing to out.
func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{out: out}
}

func (t *TerminalSink) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, s)
}

// DetectionsLine formats one result, e.g. "#3 AS 91.0% | KH 80.5%".
func DetectionsLine(r session.Result) string {
	if len(r.Detections) == 0 {
		return fmt.Sprintf("#%d no cards", r.Seq)
	}

	parts := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", pterm.LightCyan(d.Card), d.Confidence*100))
	}
	return fmt.Sprintf("#%d %s", r.Seq, strings.Join(parts, " | "))
}

// HandsTable renders the hands as a table with one row per player.
func HandsTable(snaps []hands.Snapshot) (string, error) {
	data := pterm.TableData{{"Player", "Cards", "Progress"}}
	for _, h := range snaps {
		labels := make([]string, 0, len(h.Cards))
		for _, c := range h.Cards {
			labels = append(labels, fmt.Sprintf("%s (%.0f%%)", c.Card, c.Confidence*100))
		}
		cards := strings.Join(labels, ", ")
		if cards == "" {
			cards = "-"
		}

		progress := h.Progress
		if h.Complete {
			progress = pterm.LightGreen(progress)
		}
		data = append(data, []string{"P" + strconv.Itoa(h.PlayerID), cards, progress})
	}

	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

func (t *TerminalSink) OnDetections(r session.Result) {
	t.write(DetectionsLine(r) + "\n")
}

func (t *TerminalSink) OnHandUpdate(u session.HandUpdate) {
	table, err := HandsTable(u.Hands)
	if err != nil {
		t.write(pterm.Sprintfln("hands: %v", err))
		return
	}
	t.write(table + "\n")
}

func (t *TerminalSink) OnStatusChange(st session.Status) {
	t.write(pterm.Sprintfln("%s %s", pterm.LightYellow("status"), st))
}

func (t *TerminalSink) OnError(err error) {
	t.write(pterm.Sprintfln("%s %v", pterm.LightRed("error"), err))
}
