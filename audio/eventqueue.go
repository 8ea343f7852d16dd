// Package audio is the engine around the synthesizer: it schedules MIDI
// events, drives live playback, and renders offline exports.
package audio

import (
	"sort"

	"github.com/tversteeg/cacophony"
)

// TimedEvent is one scheduled MIDI event with its absolute sample time.
type TimedEvent struct {
	Time  uint64
	Event cacophony.MidiEvent
}

// EventQueue is an ordered collection of scheduled MIDI events for one
// playback or export session. Enqueue is an O(1) append; Sort must be
// called once per batch of inserts before the queue is consumed. The queue
// is consumed monotonically with non-decreasing Dequeue times; there is no
// mid-stream rewinding.
type EventQueue struct {
	events []TimedEvent
}

func (q *EventQueue) Enqueue(time uint64, ev cacophony.MidiEvent) {
	q.events = append(q.events, TimedEvent{Time: time, Event: ev})
}

// Sort orders the queue by ascending sample time. The sort is stable, so
// note-on/note-off pairs enqueued together keep their relative order when
// their timestamps collide.
func (q *EventQueue) Sort() {
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].Time < q.events[j].Time
	})
}

// Dequeue removes and returns every event whose time is at or before the
// given time, in queue order. The returned slice is only valid until the
// next Enqueue.
func (q *EventQueue) Dequeue(time uint64) []TimedEvent {
	n := 0
	for n < len(q.events) && q.events[n].Time <= time {
		n++
	}
	due := q.events[:n]
	q.events = q.events[n:]
	return due
}

func (q *EventQueue) Len() int {
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return len(q.events) == 0
}

func (q *EventQueue) Clear() {
	q.events = nil
}
