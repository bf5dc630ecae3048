package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func synthOutput(engineID, result, prompt string) *Output {
	return &Output{
		EngineID:      engineID,
		Result:        json.RawMessage(result),
		WitnessPrompt: prompt,
	}
}

func TestThemeStrength(t *testing.T) {
	tests := []struct {
		sources int
		want    float64
	}{
		{1, 0.2},
		{2, 0.4},
		{3, 0.6},
		{5, 1.0},
		{8, 1.0},
	}
	for _, tt := range tests {
		if got := themeStrength(tt.sources); got != tt.want {
			t.Errorf("themeStrength(%d) = %v, want %v", tt.sources, got, tt.want)
		}
	}
}

func TestThemeAddSource(t *testing.T) {
	theme := Theme{Name: "Leadership"}
	theme.AddSource("numerology")
	theme.AddSource("human-design")
	theme.AddSource("gene-keys")

	if len(theme.Sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(theme.Sources))
	}
	if theme.Strength != 0.6 {
		t.Errorf("strength = %v, want 0.6", theme.Strength)
	}
}

func TestSynthesizeFindsSharedThemes(t *testing.T) {
	results := map[string]*Output{
		"numerology":   synthOutput("numerology", `{"life_path": 1, "gifts": ["leadership"]}`, "Reflect on your leadership path"),
		"human-design": synthOutput("human-design", `{"type": "Manifestor", "authority": "Emotional"}`, "Notice your authority"),
		"gene-keys":    synthOutput("gene-keys", `{"shadow": "Control", "gift": "Leadership"}`, "Explore the gift of leadership"),
	}

	synthesis := Synthesize(StrategyBirthBlueprint, results)

	if len(synthesis.Themes) == 0 {
		t.Fatal("expected themes")
	}
	var leadership *Theme
	for i := range synthesis.Themes {
		if synthesis.Themes[i].Name == "Leadership" {
			leadership = &synthesis.Themes[i]
		}
	}
	if leadership == nil {
		t.Fatal("expected Leadership theme")
	}
	if len(leadership.Sources) < 2 {
		t.Errorf("expected multiple sources for Leadership, got %v", leadership.Sources)
	}
	if synthesis.Summary == "" {
		t.Error("expected a summary")
	}
}

func TestSynthesizeThemesOrderedByStrength(t *testing.T) {
	results := map[string]*Output{
		"a": synthOutput("a", `{}`, "a gift of creative voice"),
		"b": synthOutput("b", `{}`, "the gift of structure"),
		"c": synthOutput("c", `{}`, "a gift arrives"),
	}

	synthesis := Synthesize(StrategyFullSpectrum, results)
	for i := 1; i < len(synthesis.Themes); i++ {
		prev, cur := synthesis.Themes[i-1], synthesis.Themes[i]
		if prev.Strength < cur.Strength {
			t.Fatalf("themes out of order: %s(%v) before %s(%v)",
				prev.Name, prev.Strength, cur.Name, cur.Strength)
		}
		if prev.Strength == cur.Strength && prev.Name > cur.Name {
			t.Fatalf("equal-strength themes not name-ordered: %s before %s", prev.Name, cur.Name)
		}
	}
}

func TestSynthesizeAlignments(t *testing.T) {
	results := map[string]*Output{
		"numerology":   synthOutput("numerology", `{"gifts": ["leadership"]}`, ""),
		"human-design": synthOutput("human-design", `{"strength": "leader"}`, ""),
	}

	synthesis := Synthesize(StrategyBirthBlueprint, results)

	found := false
	for _, a := range synthesis.Alignments {
		if strings.Contains(a.Aspect, "Leadership") {
			found = true
			if len(a.Engines) < 2 {
				t.Errorf("alignment needs 2+ engines, got %v", a.Engines)
			}
			if a.Confidence <= 0 || a.Confidence > 1 {
				t.Errorf("confidence out of range: %v", a.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("expected leadership alignment, got %v", synthesis.Alignments)
	}
}

func TestSynthesizeTensions(t *testing.T) {
	results := map[string]*Output{
		"numerology":   synthOutput("numerology", `{"soul_urge": "meditation and inner work"}`, "a pull toward reflection"),
		"human-design": synthOutput("human-design", `{"type": "Manifestor", "strength": "natural leader"}`, "designed to initiate with authority"),
	}

	synthesis := Synthesize(StrategyBirthBlueprint, results)

	if len(synthesis.Tensions) == 0 {
		t.Fatal("expected a visibility/introspection tension")
	}
	for _, tension := range synthesis.Tensions {
		if tension.IntegrationHint == "" {
			t.Errorf("tension %q has no integration hint", tension.Aspect)
		}
		if tension.PerspectiveA.EngineID == "" || tension.PerspectiveB.EngineID == "" {
			t.Errorf("tension %q missing perspectives", tension.Aspect)
		}
	}
}

func TestSynthesizeStrategyNone(t *testing.T) {
	results := map[string]*Output{
		"numerology": synthOutput("numerology", `{"gifts": ["leadership"]}`, ""),
	}

	synthesis := Synthesize(StrategyNone, results)
	if len(synthesis.Themes) != 0 || len(synthesis.Alignments) != 0 || len(synthesis.Tensions) != 0 {
		t.Error("strategy none must not analyze")
	}
	if synthesis.Summary == "" {
		t.Error("expected explanatory summary")
	}
}

func TestSynthesizeEmptyResults(t *testing.T) {
	synthesis := Synthesize(StrategyBirthBlueprint, nil)
	if len(synthesis.Themes) != 0 {
		t.Error("expected no themes for empty results")
	}
	if synthesis.Summary == "" {
		t.Error("expected explanatory summary")
	}
}

func TestSynthesizeSingleResult(t *testing.T) {
	results := map[string]*Output{
		"numerology": synthOutput("numerology", `{"gifts": ["leadership"]}`, ""),
	}

	synthesis := Synthesize(StrategyBirthBlueprint, results)
	if len(synthesis.Themes) == 0 {
		t.Error("a single engine still contributes themes")
	}
	if len(synthesis.Alignments) != 0 {
		t.Error("one engine cannot align with itself")
	}
}

func TestSynthesizeStrategyVocabularies(t *testing.T) {
	tests := []struct {
		strategy  SynthesisStrategy
		text      string
		wantTheme string
	}{
		{StrategyBirthBlueprint, "your soul urge points to a larger destiny", "Purpose"},
		{StrategyDailyPractice, "begin with breath and gentle exercise", "Embodiment"},
		{StrategyDecisionSupport, "you stand at a crossroads with a real trade-off", "Decision"},
		{StrategySelfInquiry, "rest attention on the observer itself", "Awareness"},
		{StrategyCreativeExpression, "follow the muse into improvisation", "Play"},
	}
	for _, tt := range tests {
		results := map[string]*Output{
			"oracle": synthOutput("oracle", `{}`, tt.text),
		}
		synthesis := Synthesize(tt.strategy, results)

		found := false
		for _, theme := range synthesis.Themes {
			if theme.Name == tt.wantTheme {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: theme %q not found in %v", tt.strategy, tt.wantTheme, synthesis.Themes)
		}
	}
}

func TestSynthesizeStrategyChangesAnalysis(t *testing.T) {
	results := map[string]*Output{
		"tarot": synthOutput("tarot", `{}`, "a real trade-off sits before you"),
	}

	decision := Synthesize(StrategyDecisionSupport, results)
	natal := Synthesize(StrategyBirthBlueprint, results)

	hasTheme := func(s SynthesisResult, name string) bool {
		for _, theme := range s.Themes {
			if theme.Name == name {
				return true
			}
		}
		return false
	}
	if !hasTheme(decision, "Decision") {
		t.Errorf("decision-support should hear trade-off language, got %v", decision.Themes)
	}
	if hasTheme(natal, "Decision") {
		t.Errorf("birth-blueprint should not hear trade-off language, got %v", natal.Themes)
	}
}

func TestSynthesizeStrategySpecificTension(t *testing.T) {
	results := map[string]*Output{
		"biorhythm": synthOutput("biorhythm", `{}`, "morning exercise wakes the body"),
		"vedic":     synthOutput("vedic", `{}`, "today asks for stillness and early sleep"),
	}

	synthesis := Synthesize(StrategyDailyPractice, results)

	found := false
	for _, tension := range synthesis.Tensions {
		if tension.Aspect == "Effort vs Recovery" {
			found = true
			if tension.IntegrationHint == "" {
				t.Error("strategy tension has no integration hint")
			}
		}
	}
	if !found {
		t.Errorf("expected Effort vs Recovery tension, got %v", synthesis.Tensions)
	}
}

func TestSynthesizeFullSpectrumHearsAllStrategies(t *testing.T) {
	results := map[string]*Output{
		"a": synthOutput("a", `{}`, "a destiny revealed at the crossroads"),
		"b": synthOutput("b", `{}`, "the muse asks only for presence"),
	}

	synthesis := Synthesize(StrategyFullSpectrum, results)

	want := map[string]bool{"Purpose": false, "Decision": false, "Play": false, "Awareness": false}
	for _, theme := range synthesis.Themes {
		if _, ok := want[theme.Name]; ok {
			want[theme.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("full-spectrum missed %s, themes: %v", name, synthesis.Themes)
		}
	}
}
