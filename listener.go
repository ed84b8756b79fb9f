package vr

import (
	"fmt"
	"slices"
)

// EventKind tags a DeviceEvent.
type EventKind int

const (
	// EventConnected is sent when a device becomes available, including
	// devices already present when the first frame begins.
	EventConnected EventKind = iota

	// EventDisconnected is sent before the device's slot is cleared.
	EventDisconnected

	// EventButtonPressed is sent after the button bit is set.
	EventButtonPressed

	// EventButtonReleased is sent after the button bit is cleared.
	EventButtonReleased

	// EventRoleChanged is sent after a controller's role was re-read.
	EventRoleChanged
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventButtonPressed:
		return "button-pressed"
	case EventButtonReleased:
		return "button-released"
	case EventRoleChanged:
		return "role-changed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// DeviceEvent is one notification delivered to listeners.
type DeviceEvent struct {
	Kind   EventKind
	Device *Device

	// Button is the raw button id for button events.
	Button int
}

// Listener receives device events synchronously during Begin. A listener
// must not call Begin, End or Close on the same context.
type Listener func(DeviceEvent)

// ListenerID identifies a registered listener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// listenerSet keeps listeners in registration order.
type listenerSet struct {
	next    ListenerID
	entries []listenerEntry
}

func (s *listenerSet) add(fn Listener) ListenerID {
	s.next++
	s.entries = append(s.entries, listenerEntry{id: s.next, fn: fn})
	return s.next
}

func (s *listenerSet) remove(id ListenerID) bool {
	i := slices.IndexFunc(s.entries, func(e listenerEntry) bool { return e.id == id })
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// snapshot returns the listeners to call for one event, so listeners may
// add or remove others while being called.
func (s *listenerSet) snapshot() []listenerEntry {
	return slices.Clone(s.entries)
}

// AddListener registers fn and returns an id for RemoveListener. The same
// function may be registered more than once.
func (c *Context) AddListener(fn Listener) ListenerID {
	return c.listeners.add(fn)
}

// RemoveListener unregisters a listener. It reports whether id was found.
func (c *Context) RemoveListener(id ListenerID) bool {
	return c.listeners.remove(id)
}

func (c *Context) dispatch(ev DeviceEvent) {
	c.stats.EventsDispatched++
	for _, e := range c.listeners.snapshot() {
		e.fn(ev)
	}
}
