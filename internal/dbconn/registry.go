package dbconn

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/johndauphine/job-archive/internal/config"
)

// Backend knows how to reach one database engine.
type Backend interface {
	// Name is the canonical engine name. It is also the identity the
	// dialect selector sees.
	Name() string

	// Aliases are alternative names accepted in configuration.
	Aliases() []string

	// DriverName returns the database/sql driver to open.
	DriverName(cfg *config.DatabaseConfig) string

	// BuildDSN assembles a connection string from discrete settings.
	BuildDSN(cfg *config.DatabaseConfig) string
}

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// Register adds a backend to the registry. It is called from init.
//
// Panics if the name or an alias is already registered.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, name := range append([]string{b.Name()}, b.Aliases()...) {
		name = strings.ToLower(name)
		if _, exists := backends[name]; exists {
			panic(fmt.Sprintf("backend %q already registered", name))
		}
		backends[name] = b
	}
}

// Lookup finds a backend by name or alias (case-insensitive).
func Lookup(nameOrAlias string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	b, exists := backends[strings.ToLower(strings.TrimSpace(nameOrAlias))]
	if !exists {
		return nil, fmt.Errorf("unsupported database type %q (available: %v)", nameOrAlias, available())
	}
	return b, nil
}

// Available returns the sorted canonical backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return available()
}

func available() []string {
	seen := make(map[string]bool)
	for _, b := range backends {
		seen[b.Name()] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
