// Package main is a hook plugin that appends every completed hand to a log file.
//
// Build it into its plugin directory:
//
//	go build -o plugins/hand-log/hand-log ./plugins/hand-log
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/cardsight/internal/hands"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is the input from the plugin executor.
type Request struct {
	Event     string              `json:"event"`
	SessionID string              `json:"session_id"`
	Config    jsoniter.RawMessage `json:"config"`
	Data      jsoniter.RawMessage `json:"data"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config is read from the manifest's config object.
type Config struct {
	Path string `json:"path"`
}

func main() {
	if err := run(os.Stdin, time.Now()); err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	writeResponse(Response{Success: true})
}

func run(in io.Reader, now time.Time) error {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	if req.Event != "hand_complete" {
		return fmt.Errorf("unsupported event: %s", req.Event)
	}

	cfg := Config{Path: "hands.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	var hand hands.Snapshot
	if err := json.Unmarshal(req.Data, &hand); err != nil {
		return fmt.Errorf("invalid hand: %w", err)
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, formatLine(now, req.SessionID, hand))
	return err
}

func formatLine(now time.Time, sessionID string, hand hands.Snapshot) string {
	cards := make([]string, len(hand.Cards))
	for i, c := range hand.Cards {
		cards[i] = c.Card
	}
	return fmt.Sprintf("%s session=%s player=%d cards=%s",
		now.UTC().Format(time.RFC3339), sessionID, hand.PlayerID, strings.Join(cards, ","))
}

func writeResponse(resp Response) {
	out, _ := json.Marshal(resp)
	fmt.Println(string(out))
}
