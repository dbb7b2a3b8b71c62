// Package tray provides a system tray interface for controlling the detection loop.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/session"
)

// Tray represents the system tray application. It also receives session events
// to keep its status lines current.
type Tray struct {
	session.NopSink

	onToggle func(detecting bool)
	onOpenUI func()
	onQuit   func()
	status   session.Status
	hands    string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
	menuHands  *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{
		status: session.StatusNotStarted,
		hands:  "Hands: none",
	}
}

// OnToggle sets the callback invoked when the user starts or stops detection.
func (t *Tray) OnToggle(fn func(detecting bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenUI sets the callback invoked when the web UI menu item is clicked.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Cardsight")
	systray.SetTooltip("Cardsight card detection")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.status), "Start or stop the detection loop")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Status: "+string(t.status), "Session status")
	t.menuStatus.Disable()
	t.menuHands = systray.AddMenuItem(t.hands, "Current player hands")
	t.menuHands.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Web UI...", "Open the session view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Cardsight")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(st session.Status) string {
	if st == session.StatusDetecting {
		return "■ Stop Detection"
	}
	return "▶ Start Detection"
}

// handleToggle asks for the opposite of the current loop state. The menu title
// follows the status change the session reports back.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	detecting := t.status != session.StatusDetecting
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(detecting)
	}
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// OnStatusChange updates the status line and the toggle title.
func (t *Tray) OnStatusChange(st session.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = st
	if t.menuStatus != nil {
		t.menuStatus.SetTitle("Status: " + string(st))
	}
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(st))
	}
}

// OnHandUpdate updates the hands line.
func (t *Tray) OnHandUpdate(u session.HandUpdate) {
	line := HandsLine(u.Hands)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.hands = line
	if t.menuHands != nil {
		t.menuHands.SetTitle(line)
	}
}

// Status returns the last reported session status.
func (t *Tray) Status() session.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Hands returns the current hands line.
func (t *Tray) Hands() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hands
}

// HandsLine summarises the non-empty hands, e.g. "P1 AS 10H | P3 KD (1/2)".
func HandsLine(snaps []hands.Snapshot) string {
	var parts []string
	for _, h := range snaps {
		if len(h.Cards) == 0 {
			continue
		}
		labels := make([]string, 0, len(h.Cards))
		for _, c := range h.Cards {
			labels = append(labels, c.Card)
		}
		part := fmt.Sprintf("P%d %s", h.PlayerID, strings.Join(labels, " "))
		if !h.Complete {
			part += " (" + h.Progress + ")"
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "Hands: none"
	}
	return strings.Join(parts, " | ")
}
