// Package plan assembles constructed actions into plans: ordered
// collections with a unique-producer guarantee over derived artifacts.
package plan

import (
	"fmt"
	"sync"

	"github.com/justapithecus/smelt/action"
)

// Registry tracks which action produces each derived artifact.
// Every derived artifact in a plan has exactly one producer; a second
// registration for the same exec path is a conflict.
// Thread-safe for concurrent access.
type Registry struct {
	mu sync.RWMutex
	// producers maps output exec path -> producing action key.
	producers map[string]string
}

// NewRegistry creates an empty producer registry.
func NewRegistry() *Registry {
	return &Registry{
		producers: make(map[string]string),
	}
}

// Register claims every output of the given actions for their keys.
// The whole set is checked before anything is claimed, so a conflict
// leaves the registry untouched. Two actions with the same key may
// claim the same output: they are the same action constructed twice.
func (r *Registry) Register(actions ...action.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]string)
	for _, a := range actions {
		for _, out := range a.Outputs() {
			if existing, taken := r.producers[out.ExecPath]; taken && existing != a.Key() {
				return &ConflictError{
					ExecPath:    out.ExecPath,
					ExistingKey: existing,
					NewKey:      a.Key(),
				}
			}
			if pending, taken := staged[out.ExecPath]; taken && pending != a.Key() {
				return &ConflictError{
					ExecPath:    out.ExecPath,
					ExistingKey: pending,
					NewKey:      a.Key(),
				}
			}
			staged[out.ExecPath] = a.Key()
		}
	}
	for execPath, key := range staged {
		r.producers[execPath] = key
	}
	return nil
}

// Producer returns the key of the action producing the given exec
// path, if one is registered.
func (r *Registry) Producer(execPath string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.producers[execPath]
	return key, ok
}

// Len returns the number of registered artifacts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.producers)
}

// ConflictError reports a derived artifact claimed by two actions.
type ConflictError struct {
	ExecPath    string
	ExistingKey string
	NewKey      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("artifact %s already produced by action %s (conflicting action %s)",
		e.ExecPath, shortKey(e.ExistingKey), shortKey(e.NewKey))
}

// shortKey abbreviates an action key for error messages.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
