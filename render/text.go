// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"golang.org/x/image/math/f32"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// DefaultTextScale is the default text height in pixels.
const DefaultTextScale = 24

// FontToken references an uploaded font. The zero token is the default
// font.
type FontToken uint32

// Text is a string drawn by the render thread.
//
// Use SetString (or NewText) to change the string: it normalizes the text
// to NFC and derives the layout hints Direction and Script that the
// shaper needs.
type Text struct {
	String string
	// Pos is the top-left corner in pixels.
	Pos f32.Vec3
	// MaxWidth wraps lines longer than MaxWidth pixels. Zero or less
	// disables wrapping.
	MaxWidth float32
	// Scale is the text height in pixels.
	Scale uint32
	Color RGBA8
	Font  FontToken

	// Direction is the base direction, from the first strong character.
	Direction di.Direction
	// Script is the script of the first character that has one.
	Script language.Script
}

// NewText returns black 24px text in the default font.
func NewText(s string) Text {
	t := Text{Scale: DefaultTextScale, Color: Black}
	t.SetString(s)
	return t
}

// SetString replaces the string and recomputes the layout hints.
func (t *Text) SetString(s string) {
	t.String = norm.NFC.String(s)
	t.Direction = baseDirection(t.String)
	t.Script = baseScript(t.String)
}

// baseDirection applies rule P2 of the bidi algorithm: the first character
// of class L, R or AL decides. Text without one is left-to-right.
func baseDirection(s string) di.Direction {
	for _, r := range s {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return di.DirectionLTR
		case bidi.R, bidi.AL:
			return di.DirectionRTL
		}
	}
	return di.DirectionLTR
}

// baseScript returns the script of the first rune that is neither common
// (digits, punctuation, spaces) nor inherited (combining marks).
func baseScript(s string) language.Script {
	for _, r := range s {
		if unicode.In(r, unicode.Common, unicode.Inherited) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
