package core

import "time"

// WindowState captures fixed-window counter state for one client key.
type WindowState struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
	LastRequest time.Time `json:"last_request"`
}
