package engine

import (
	"encoding/json"
	"time"
)

// Precision is the calculation precision level requested from an engine.
type Precision string

const (
	// PrecisionStandard is the default precision level.
	PrecisionStandard Precision = "standard"

	// PrecisionHigh requests higher-accuracy backends where available.
	PrecisionHigh Precision = "high"

	// PrecisionExtreme requests the most accurate backend an engine has.
	PrecisionExtreme Precision = "extreme"
)

// Input is the input to any engine calculation. All engines receive the
// same input shape; each reads the fields relevant to it.
type Input struct {
	// Birth is the birth data for chart-based engines.
	Birth *BirthData `json:"birth,omitempty"`

	// CurrentTime is the reference time for time-based calculations.
	CurrentTime time.Time `json:"current_time"`

	// Location is the geographic location, if relevant.
	Location *Coordinates `json:"location,omitempty"`

	// Precision is the requested calculation precision.
	Precision Precision `json:"precision,omitempty"`

	// Options contains engine-specific options.
	Options map[string]interface{} `json:"options,omitempty"`
}

// BirthData describes a birth moment and place for chart-based engines.
type BirthData struct {
	// Name is an optional display name for the subject.
	Name string `json:"name,omitempty"`

	// Date is the birth date in YYYY-MM-DD format.
	Date string `json:"date"`

	// Time is the birth time in HH:MM format, if known.
	Time string `json:"time,omitempty"`

	// Latitude is the birth latitude in decimal degrees.
	Latitude float64 `json:"latitude"`

	// Longitude is the birth longitude in decimal degrees.
	Longitude float64 `json:"longitude"`

	// Timezone is the IANA timezone identifier of the birth place.
	Timezone string `json:"timezone"`
}

// Coordinates is a geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// Output is the result of a single engine calculation. Outputs are
// immutable after creation; the executor and cache share them read-only.
type Output struct {
	// EngineID identifies the engine that produced this output.
	EngineID string `json:"engine_id"`

	// Result is the engine-specific result payload. Each engine defines
	// its own schema.
	Result json.RawMessage `json:"result"`

	// WitnessPrompt is a self-inquiry question generated from the
	// calculation.
	WitnessPrompt string `json:"witness_prompt"`

	// Level is the consciousness phase the output was calculated for.
	Level int `json:"level"`

	// Metadata records how the calculation was performed.
	Metadata CalculationMetadata `json:"metadata"`
}

// CalculationMetadata records timing and provenance for one calculation.
type CalculationMetadata struct {
	// Duration is how long the calculation took.
	Duration time.Duration `json:"duration"`

	// Backend is the backend used (e.g. "native", "swiss-ephemeris").
	Backend string `json:"backend"`

	// Precision is the precision level actually achieved.
	Precision Precision `json:"precision"`

	// Cached is true when the result was served from cache.
	Cached bool `json:"cached"`

	// Timestamp is when the calculation ran.
	Timestamp time.Time `json:"timestamp"`
}

// ValidationResult is the outcome of an engine's self-validation.
type ValidationResult struct {
	// Valid reports whether the output passed validation.
	Valid bool `json:"valid"`

	// Confidence is the engine's confidence in the output (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// Messages lists validation warnings or failures.
	Messages []string `json:"messages,omitempty"`
}

// SynthesisStrategy selects the synthesis vocabulary used to combine a
// workflow's engine outputs.
type SynthesisStrategy string

const (
	// StrategyBirthBlueprint cross-references natal identity patterns.
	StrategyBirthBlueprint SynthesisStrategy = "birth-blueprint"

	// StrategyDailyPractice combines temporal rhythm recommendations.
	StrategyDailyPractice SynthesisStrategy = "daily-practice"

	// StrategyDecisionSupport aligns multi-system decision mirrors.
	StrategyDecisionSupport SynthesisStrategy = "decision-support"

	// StrategySelfInquiry maps shadow patterns across systems.
	StrategySelfInquiry SynthesisStrategy = "self-inquiry"

	// StrategyCreativeExpression combines symbolic and aesthetic guidance.
	StrategyCreativeExpression SynthesisStrategy = "creative-expression"

	// StrategyFullSpectrum integrates every available engine.
	StrategyFullSpectrum SynthesisStrategy = "full-spectrum"

	// StrategyNone returns raw engine outputs with no cross-engine
	// analysis.
	StrategyNone SynthesisStrategy = "none"
)

// WorkflowDefinition names a set of engines, an access phase, and a
// synthesis strategy. Definitions are immutable after registration.
type WorkflowDefinition struct {
	// ID is the unique workflow identifier.
	ID string `json:"id"`

	// Name is the human-readable workflow name.
	Name string `json:"name"`

	// Description explains what the workflow combines.
	Description string `json:"description"`

	// EngineIDs lists the participating engines, in definition order.
	EngineIDs []string `json:"engine_ids"`

	// RequiredPhase is the minimum caller phase needed to execute.
	RequiredPhase int `json:"required_phase"`

	// Strategy selects the synthesis approach.
	Strategy SynthesisStrategy `json:"strategy"`

	// DefaultOptions are merged under the caller's input options.
	DefaultOptions map[string]interface{} `json:"default_options,omitempty"`
}

// WorkflowOutput is the combined result of one workflow execution.
// It is assembled once and not mutated after return.
type WorkflowOutput struct {
	// WorkflowID identifies the executed workflow.
	WorkflowID string `json:"workflow_id"`

	// EngineResults maps engine id to output, for engines that were
	// registered and returned a non-error result.
	EngineResults map[string]*Output `json:"engine_results"`

	// Failures maps engine id to a failure reason for engines that were
	// invoked but returned an error or timed out.
	Failures map[string]string `json:"failures,omitempty"`

	// Skipped lists engine ids that were named by the definition but not
	// registered or not accessible at the caller's phase.
	Skipped []string `json:"skipped,omitempty"`

	// Synthesis is the cross-engine pattern analysis.
	Synthesis SynthesisResult `json:"synthesis"`

	// WitnessPrompts are synthesis-level self-inquiry prompts.
	WitnessPrompts []WitnessPrompt `json:"witness_prompts,omitempty"`

	// Duration is the total execution wall time.
	Duration time.Duration `json:"duration"`

	// Timestamp is when the workflow executed.
	Timestamp time.Time `json:"timestamp"`
}

// SynthesisResult is the cross-engine pattern analysis for a workflow.
type SynthesisResult struct {
	// Themes are patterns identified across engines, strongest first.
	Themes []Theme `json:"themes"`

	// Alignments record where two or more engines agree.
	Alignments []Alignment `json:"alignments"`

	// Tensions record where engines point in different directions.
	Tensions []Tension `json:"tensions"`

	// Summary is a short human-readable narrative.
	Summary string `json:"summary"`
}

// Theme is a cross-engine pattern with a strength proportional to how
// many engines contribute to it.
type Theme struct {
	// Name is the theme name (e.g. "Leadership", "Introspection").
	Name string `json:"name"`

	// Description explains how the theme manifests.
	Description string `json:"description"`

	// Sources lists the engine ids contributing to this theme.
	Sources []string `json:"sources"`

	// Strength is min(len(Sources)/5, 1). Five agreeing engines count as
	// full strength for typical workflow sizes.
	Strength float64 `json:"strength"`
}

// themeNormalization is the source count treated as full agreement.
const themeNormalization = 5.0

// AddSource records another contributing engine and recomputes strength.
func (t *Theme) AddSource(engineID string) {
	t.Sources = append(t.Sources, engineID)
	t.Strength = themeStrength(len(t.Sources))
}

func themeStrength(sources int) float64 {
	s := float64(sources) / themeNormalization
	if s > 1 {
		return 1
	}
	return s
}

// Alignment records a conclusion that multiple engines independently
// support.
type Alignment struct {
	// Aspect is what the engines agree on.
	Aspect string `json:"aspect"`

	// Description is a human-readable account of the agreement.
	Description string `json:"description"`

	// Engines lists the agreeing engine ids.
	Engines []string `json:"engines"`

	// Confidence is the confidence in the alignment (0.0-1.0).
	Confidence float64 `json:"confidence"`
}

// Perspective is one engine's viewpoint inside a tension.
type Perspective struct {
	// EngineID identifies the engine holding this view.
	EngineID string `json:"engine_id"`

	// View is the viewpoint text.
	View string `json:"view"`
}

// Tension records two engine outputs that point in different directions,
// with a suggestion for holding both.
type Tension struct {
	// Aspect names the tension.
	Aspect string `json:"aspect"`

	// Description explains the opposing pull.
	Description string `json:"description"`

	// PerspectiveA is the first viewpoint.
	PerspectiveA Perspective `json:"perspective_a"`

	// PerspectiveB is the second viewpoint.
	PerspectiveB Perspective `json:"perspective_b"`

	// IntegrationHint suggests how to integrate both perspectives.
	// Always non-empty.
	IntegrationHint string `json:"integration_hint"`
}

// InquiryType classifies what kind of reflection a witness prompt invites.
type InquiryType string

const (
	// InquiryPatternNoticing invites observing cross-system patterns.
	InquiryPatternNoticing InquiryType = "pattern-noticing"

	// InquiryTensionExploration invites exploring tensions between
	// systems.
	InquiryTensionExploration InquiryType = "tension-exploration"

	// InquiryPerspectiveShift invites shifting one's relationship to the
	// insight.
	InquiryPerspectiveShift InquiryType = "perspective-shift"

	// InquiryUnderstanding invites deepening understanding.
	InquiryUnderstanding InquiryType = "understanding"

	// InquiryIntegration invites integration and action.
	InquiryIntegration InquiryType = "integration"
)

// WitnessPrompt is a short reflective question generated from synthesis.
type WitnessPrompt struct {
	// Text is the prompt text.
	Text string `json:"text"`

	// Inquiry is the type of reflection the prompt invites.
	Inquiry InquiryType `json:"inquiry"`

	// Context names the related theme or tension, if any.
	Context string `json:"context,omitempty"`
}
