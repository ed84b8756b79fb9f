// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tracking

import (
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/vr/internal/logging"
)

// DriverFactory starts a runtime. Implementations should return an
// *InitError describing why the subsystem could not start.
type DriverFactory func() (Runtime, error)

// DriverEntry represents a registered tracking driver.
type DriverEntry struct {
	// Name is the unique identifier for this driver.
	Name string

	// Priority determines selection order (higher = preferred).
	// Hardware drivers use 100, the simulator uses 10.
	Priority int

	// Factory starts the runtime.
	Factory DriverFactory

	// Available reports whether the driver can run on this system.
	Available func() bool
}

var globalRegistry = &Registry{}

// Registry manages registered tracking drivers.
//
// Drivers register themselves from init:
//
//	func init() {
//	    tracking.Register("sim", 10, factory, nil)
//	}
//
// and applications start the best one:
//
//	rt, err := tracking.InitDefault()
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*DriverEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and Init.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*DriverEntry),
	}
}

// Register adds a driver to the global registry.
// If available is nil, the driver is assumed always available.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory DriverFactory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a driver from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// Drivers returns all registered driver names sorted by priority.
func Drivers() []string {
	return globalRegistry.List()
}

// Init starts the named driver from the global registry.
func Init(name string) (Runtime, error) {
	return globalRegistry.Init(name)
}

// InitDefault starts the best available driver from the global registry.
func InitDefault() (Runtime, error) {
	return globalRegistry.InitDefault()
}

// Register adds a driver to this registry.
func (r *Registry) Register(name string, priority int, factory DriverFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*DriverEntry)
	}
	if available == nil {
		available = func() bool { return true }
	}

	r.entries[name] = &DriverEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a driver from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered driver names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns names of all available drivers sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns a copy of the entry for name.
func (r *Registry) Get(name string) (*DriverEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// InitDefault starts the highest priority available driver, falling back to
// lower priorities when a driver fails to start.
func (r *Registry) InitDefault() (Runtime, error) {
	r.mu.RLock()
	available := r.sortedNames(true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, &InitError{Err: ErrNoDriverAvailable}
	}

	var errs []error
	for _, name := range available {
		rt, err := r.Init(name)
		if err == nil {
			return rt, nil
		}
		logging.Get().Warn("tracking driver failed to start", "driver", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// Init starts the named driver. Every failure is reported as *InitError;
// an unknown or unavailable driver is wrapped as *DriverNotFoundError or
// *DriverUnavailableError.
func (r *Registry) Init(name string) (Runtime, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &InitError{Driver: name, Err: &DriverNotFoundError{Name: name}}
	}
	if !entry.Available() {
		return nil, &InitError{Driver: name, Err: &DriverUnavailableError{Name: name}}
	}

	rt, err := entry.Factory()
	if err != nil {
		var initErr *InitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &InitError{Driver: name, Err: err}
	}
	if rt == nil {
		return nil, &InitError{Driver: name, Err: errors.New("factory returned nil runtime")}
	}
	logging.Get().Info("tracking driver started", "driver", name)
	return rt, nil
}

// sortedNames returns driver names sorted by priority (highest first).
// Must be called with lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}
