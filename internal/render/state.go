// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// spinnerFrames are braille frames similar to the docker CLI.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// RenderState holds the live display state: the spinner frame, the widest
// line so far and the last frame written.
type RenderState struct {
	frameIdx     int
	maxLineLen   int
	lastRendered string
	mu           sync.Mutex
}

// NewRenderState creates a new RenderState with default values.
func NewRenderState() *RenderState {
	return &RenderState{}
}

// Tick advances the spinner and returns the new frame.
func (rs *RenderState) Tick() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.frameIdx++
	return spinnerFrames[rs.frameIdx%len(spinnerFrames)]
}

// Frame returns the current spinner frame.
func (rs *RenderState) Frame() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return spinnerFrames[rs.frameIdx%len(spinnerFrames)]
}

// Pad pads every line of text to the widest line seen so far, so shorter
// frames fully overwrite longer ones.
func (rs *RenderState) Pad(text string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	lines := strings.Split(text, "\n")
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > rs.maxLineLen {
			rs.maxLineLen = n
		}
	}
	for i, l := range lines {
		if pad := rs.maxLineLen - utf8.RuneCountInString(l); pad > 0 {
			lines[i] = l + strings.Repeat(" ", pad)
		}
	}
	return strings.Join(lines, "\n")
}

// Swap records text as the last rendered frame and reports whether it
// differs from the previous one.
func (rs *RenderState) Swap(text string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if text == rs.lastRendered {
		return false
	}
	rs.lastRendered = text
	return true
}

// LastRendered returns the last frame recorded by Swap.
func (rs *RenderState) LastRendered() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastRendered
}

// Reset clears the state for a new session.
func (rs *RenderState) Reset() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.maxLineLen = 0
	rs.lastRendered = ""
}
