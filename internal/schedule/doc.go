// Package schedule turns loose time text and a duration into a concrete
// meeting window.
//
// Resolution walks a fixed ladder and stops at the first rung that applies:
//
//  1. natural tier only: a date or time phrase found in the text
//  2. the word "tomorrow": the next day at 14:00 UTC
//  3. otherwise: one hour from now
//
// The basic tier skips the first rung and is fully deterministic. All windows
// are in UTC, truncated to whole seconds, and always end after they start.
package schedule
