// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import "time"

// DefaultTickRate is the default number of updates per second.
const DefaultTickRate = 60

// Option configures a Runner during creation.
type Option func(*options)

type options struct {
	interval time.Duration
}

func defaultOptions() options {
	return options{interval: time.Second / DefaultTickRate}
}

// WithTickRate sets the number of updates per second. Zero or less keeps
// the default.
func WithTickRate(hz int) Option {
	return func(o *options) {
		if hz > 0 {
			o.interval = time.Second / time.Duration(hz)
		}
	}
}

// WithTickInterval sets the time between updates directly. Zero or less
// keeps the default.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}
