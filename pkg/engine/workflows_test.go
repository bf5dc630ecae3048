package engine

import "testing"

func TestCanonicalWorkflowCatalog(t *testing.T) {
	reg := NewWorkflowRegistry()
	if reg.Len() != 6 {
		t.Fatalf("expected 6 canonical workflows, got %d", reg.Len())
	}

	tests := []struct {
		id          string
		phase       int
		engineCount int
		strategy    SynthesisStrategy
	}{
		{"birth-blueprint", 0, 3, StrategyBirthBlueprint},
		{"daily-practice", 0, 3, StrategyDailyPractice},
		{"decision-support", 1, 3, StrategyDecisionSupport},
		{"self-inquiry", 2, 2, StrategySelfInquiry},
		{"creative-expression", 1, 2, StrategyCreativeExpression},
		{"full-spectrum", 3, 14, StrategyFullSpectrum},
	}
	for _, tt := range tests {
		def, ok := reg.Get(tt.id)
		if !ok {
			t.Errorf("missing canonical workflow %s", tt.id)
			continue
		}
		if def.RequiredPhase != tt.phase {
			t.Errorf("%s: phase = %d, want %d", tt.id, def.RequiredPhase, tt.phase)
		}
		if len(def.EngineIDs) != tt.engineCount {
			t.Errorf("%s: %d engines, want %d", tt.id, len(def.EngineIDs), tt.engineCount)
		}
		if def.Strategy != tt.strategy {
			t.Errorf("%s: strategy = %s, want %s", tt.id, def.Strategy, tt.strategy)
		}
		if def.Name == "" || def.Description == "" {
			t.Errorf("%s: missing name or description", tt.id)
		}
	}
}

func TestWorkflowRegistryListForPhase(t *testing.T) {
	reg := NewWorkflowRegistry()

	tests := []struct {
		phase int
		want  int
	}{
		{0, 2}, // birth-blueprint, daily-practice
		{1, 4},
		{2, 5},
		{3, 6},
	}
	for _, tt := range tests {
		got := reg.ListForPhase(tt.phase)
		if len(got) != tt.want {
			t.Errorf("ListForPhase(%d) returned %d workflows, want %d", tt.phase, len(got), tt.want)
		}
		for _, def := range got {
			if def.RequiredPhase > tt.phase {
				t.Errorf("ListForPhase(%d) leaked %s (phase %d)", tt.phase, def.ID, def.RequiredPhase)
			}
		}
	}
}

func TestWorkflowRegistryRegisterCustom(t *testing.T) {
	reg := NewWorkflowRegistry()
	reg.Register(WorkflowDefinition{
		ID:        "morning-checkin",
		Name:      "Morning Check-In",
		EngineIDs: []string{"biorhythm"},
		Strategy:  StrategyNone,
	})

	if reg.Len() != 7 {
		t.Fatalf("expected 7 workflows, got %d", reg.Len())
	}
	if _, ok := reg.Get("morning-checkin"); !ok {
		t.Error("custom workflow not retrievable")
	}

	// Replace by id.
	reg.Register(WorkflowDefinition{ID: "morning-checkin", Name: "Renamed"})
	def, _ := reg.Get("morning-checkin")
	if def.Name != "Renamed" {
		t.Errorf("expected replacement, got %q", def.Name)
	}
	if reg.Len() != 7 {
		t.Errorf("replace must not grow the registry: %d", reg.Len())
	}
}
