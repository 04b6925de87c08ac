// Package schedule owns the event schedule: the track registry, the
// room/slot booking grid, the now/next announcements, per-track display
// tags and the additional room grid.
//
// A Store is created explicitly and handed to its users; there is no
// package level instance. Every mutation is staged on a copy of the
// current Snapshot, written through the Backend and only then made
// visible, so a failed write never leaves memory and disk out of step.
package schedule
