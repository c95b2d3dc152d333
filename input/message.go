// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package input turns raw window events into the messages the simulation
// consumes.
//
// A [Server] runs on the input thread. Discrete events (button presses,
// enter and leave) become messages immediately, in order. Continuous state
// (cursor position, window size) is accumulated during one pass over the
// event source and reported at most once per pass by [Server.Finalize].
// The newest cursor position is also published to a latest-value slot for
// the render thread, which only cares about the current sample.
//
// Positions use a centered, y-up coordinate space: the window center is the
// origin, x grows to the right and y grows upwards.
package input

import (
	"fmt"

	"golang.org/x/image/math/f32"
)

// Button identifies a mouse button.
type Button uint8

// Mouse buttons.
const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonBack
	ButtonForward
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonBack:
		return "back"
	case ButtonForward:
		return "forward"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// Message is an input message sent from the input thread to the
// simulation thread. The set of implementations is closed.
type Message interface {
	isMessage()
}

// CursorPressed reports a button press at the current cursor position.
type CursorPressed struct {
	Button Button
	Pos    f32.Vec2
}

// CursorReleased reports a button release at the current cursor position.
type CursorReleased struct {
	Button Button
	Pos    f32.Vec2
}

// CursorEntered reports that the cursor entered the window.
type CursorEntered struct{}

// CursorLeft reports that the cursor left the window.
type CursorLeft struct{}

// CursorMoved reports the cursor position at the end of an input pass and
// the distance travelled since the previous CursorMoved.
type CursorMoved struct {
	Pos   f32.Vec2
	Delta f32.Vec2
}

// WindowResized reports the window size at the end of an input pass.
type WindowResized struct {
	Size f32.Vec2
}

func (CursorPressed) isMessage()  {}
func (CursorReleased) isMessage() {}
func (CursorEntered) isMessage()  {}
func (CursorLeft) isMessage()     {}
func (CursorMoved) isMessage()    {}
func (WindowResized) isMessage()  {}
