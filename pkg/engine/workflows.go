package engine

import (
	"sort"
	"sync"
)

// WorkflowRegistry is a catalog of named workflow definitions. It is
// pre-populated with the six canonical workflows and accepts additional
// registrations at runtime (insert-or-replace by id).
type WorkflowRegistry struct {
	mu        sync.RWMutex
	workflows map[string]WorkflowDefinition
}

// NewWorkflowRegistry creates a registry pre-populated with the canonical
// workflow catalog.
func NewWorkflowRegistry() *WorkflowRegistry {
	r := &WorkflowRegistry{
		workflows: make(map[string]WorkflowDefinition),
	}
	for _, def := range canonicalWorkflows() {
		r.Register(def)
	}
	return r
}

// NewEmptyWorkflowRegistry creates a registry with no definitions.
func NewEmptyWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{
		workflows: make(map[string]WorkflowDefinition),
	}
}

// Register inserts a definition, replacing any existing definition with
// the same id.
func (r *WorkflowRegistry) Register(def WorkflowDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[def.ID] = def
}

// Get retrieves a definition by id.
func (r *WorkflowRegistry) Get(id string) (WorkflowDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.workflows[id]
	return def, ok
}

// List returns all definitions ordered by id.
func (r *WorkflowRegistry) List() []WorkflowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WorkflowDefinition, 0, len(r.workflows))
	for _, def := range r.workflows {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// ListForPhase returns the definitions whose required phase is at most
// maxPhase, ordered by id. Access enforcement during execution is the
// executor's responsibility; this is a discovery helper.
func (r *WorkflowRegistry) ListForPhase(maxPhase int) []WorkflowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WorkflowDefinition, 0, len(r.workflows))
	for _, def := range r.workflows {
		if def.RequiredPhase <= maxPhase {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Len returns the number of registered definitions.
func (r *WorkflowRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workflows)
}

// canonicalWorkflows returns the six built-in workflow definitions.
func canonicalWorkflows() []WorkflowDefinition {
	return []WorkflowDefinition{
		{
			ID:            "birth-blueprint",
			Name:          "Birth Blueprint",
			Description:   "Core identity mapping through birth data analysis",
			EngineIDs:     []string{"numerology", "human-design", "vimshottari"},
			RequiredPhase: 0,
			Strategy:      StrategyBirthBlueprint,
		},
		{
			ID:            "daily-practice",
			Name:          "Daily Practice",
			Description:   "Daily rhythm optimization through temporal analysis",
			EngineIDs:     []string{"panchanga", "vedic-clock", "biorhythm"},
			RequiredPhase: 0,
			Strategy:      StrategyDailyPractice,
		},
		{
			ID:            "decision-support",
			Name:          "Decision Support",
			Description:   "Multi-system decision mirrors for clarity",
			EngineIDs:     []string{"tarot", "i-ching", "human-design"},
			RequiredPhase: 1,
			Strategy:      StrategyDecisionSupport,
		},
		{
			ID:            "self-inquiry",
			Name:          "Self-Inquiry",
			Description:   "Deep self-exploration and shadow work",
			EngineIDs:     []string{"gene-keys", "enneagram"},
			RequiredPhase: 2,
			Strategy:      StrategySelfInquiry,
		},
		{
			ID:            "creative-expression",
			Name:          "Creative Expression",
			Description:   "Creative and aesthetic exploration through symbols",
			EngineIDs:     []string{"sigil-forge", "sacred-geometry"},
			RequiredPhase: 1,
			Strategy:      StrategyCreativeExpression,
		},
		{
			ID:   "full-spectrum",
			Name: "Full Spectrum",
			Description: "Complete integration of all available engines",
			EngineIDs: []string{
				"numerology", "human-design", "vimshottari", "panchanga",
				"vedic-clock", "biorhythm", "gene-keys", "biofield",
				"face-reading", "tarot", "i-ching", "enneagram",
				"sacred-geometry", "sigil-forge",
			},
			RequiredPhase: 3,
			Strategy:      StrategyFullSpectrum,
		},
	}
}
