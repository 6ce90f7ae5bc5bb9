package store

import (
	"fmt"
	"sync"
)

// DriverFactory constructs a [Backend] from driver-specific configuration.
// The config map comes from the matching `[store.drivers.<name>]` table;
// it may be nil, in which case the factory applies its own defaults.
type DriverFactory func(config map[string]any) (Backend, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// RegisterDriver registers a store driver under name. Drivers register
// themselves from an init() function in their own package.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// New constructs a [Backend] for the named driver. If name is empty, it
// defaults to "memory". Config is the driver-specific table, or nil.
func New(name string, config map[string]any) (Backend, error) {
	if name == "" {
		name = "memory"
	}

	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q", name)
	}

	return factory(config)
}

// AvailableDrivers returns the names of every registered driver.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
