package plan

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/smelt/action"
)

// Plan is an ordered collection of constructed actions for one
// workspace. Actions are appended in construction order and every
// derived artifact has a unique producer, enforced at insertion.
// Thread-safe: rule evaluation may add action sets concurrently.
type Plan struct {
	id        string
	workspace string
	createdAt time.Time

	mu       sync.Mutex
	actions  []action.Action
	registry *Registry
}

// New creates an empty plan for the workspace with a fresh plan ID.
func New(workspace string) *Plan {
	return &Plan{
		id:        uuid.NewString(),
		workspace: workspace,
		createdAt: time.Now().UTC(),
		registry:  NewRegistry(),
	}
}

// ID returns the plan's unique identifier.
func (p *Plan) ID() string { return p.id }

// Workspace returns the workspace the plan was built for.
func (p *Plan) Workspace() string { return p.workspace }

// CreatedAt returns the plan's creation time in UTC.
func (p *Plan) CreatedAt() time.Time { return p.createdAt }

// AddActions appends one constructed action set to the plan. The set
// is admitted atomically: if any output conflicts with an already
// registered producer, none of the set's actions are added.
func (p *Plan) AddActions(actions ...action.Action) error {
	if len(actions) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.registry.Register(actions...); err != nil {
		return fmt.Errorf("plan %s: %w", p.id, err)
	}
	p.actions = append(p.actions, actions...)
	return nil
}

// Actions returns the plan's actions in insertion order.
func (p *Plan) Actions() []action.Action {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]action.Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// Len returns the number of actions in the plan.
func (p *Plan) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.actions)
}

// Registry exposes the producer registry for artifact lookups.
func (p *Plan) Registry() *Registry { return p.registry }

// Stats summarizes the plan's composition.
type Stats struct {
	// Actions is the total action count.
	Actions int64
	// Spawns counts primary spawn actions.
	Spawns int64
	// FileWrites counts parameter-file write actions.
	FileWrites int64
	// Outputs counts declared outputs across all actions.
	Outputs int64
	// ByMnemonic counts actions per mnemonic.
	ByMnemonic map[string]int64
}

// Stats walks the plan and returns composition rollups.
func (p *Plan) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{ByMnemonic: make(map[string]int64)}
	for _, a := range p.actions {
		stats.Actions++
		stats.Outputs += int64(len(a.Outputs()))
		stats.ByMnemonic[a.Mnemonic()]++

		switch a.(type) {
		case *action.FileWriteAction:
			stats.FileWrites++
		case *action.SpawnAction:
			stats.Spawns++
		}
	}
	return stats
}
