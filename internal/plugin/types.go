// Package plugin runs external hook executables when the detection session
// publishes an event they subscribe to.
package plugin

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

// Events a plugin can subscribe to.
const (
	EventHandComplete = "hand_complete"
	EventDetections   = "detections"
	EventStatus       = "status"
	EventError        = "error"
)

// Manifest describes a plugin and the events it wants.
type Manifest struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Executable  string              `json:"executable"`
	Events      []string            `json:"events"`
	Config      jsoniter.RawMessage `json:"config,omitempty"`
}

// Request is written to the plugin's stdin.
type Request struct {
	Event     string              `json:"event"`
	SessionID string              `json:"session_id"`
	Config    jsoniter.RawMessage `json:"config,omitempty"`
	Data      jsoniter.RawMessage `json:"data"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to event.
func (p *Plugin) Handles(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
