package engine

import (
	"fmt"
	"sort"
	"strings"
)

// maxWitnessPrompts bounds how many prompts a workflow returns. More
// than a handful dilutes attention rather than focusing it.
const maxWitnessPrompts = 4

// GenerateWitnessPrompts derives self-inquiry prompts from a synthesis
// result, phrased for the caller's phase: phase 0 invites bare noticing,
// later phases invite pattern work, perspective shifts, and conscious
// choice. Each strategy contributes a closing prompt of its own, which
// always survives truncation. At most maxWitnessPrompts are returned,
// strongest findings first.
func GenerateWitnessPrompts(strategy SynthesisStrategy, synthesis SynthesisResult, phase int) []WitnessPrompt {
	var prompts []WitnessPrompt

	for _, theme := range synthesis.Themes {
		if theme.Strength >= 0.4 {
			prompts = append(prompts, themePrompt(theme, phase))
		}
	}
	for _, tension := range synthesis.Tensions {
		prompts = append(prompts, tensionPrompt(tension, phase))
	}
	if len(synthesis.Alignments) > 0 {
		prompts = append(prompts, alignmentPrompt(synthesis.Alignments, phase))
	}
	prompts = append(prompts, synthesisPrompt(synthesis, phase))

	if closing, ok := strategyPrompt(strategy, phase); ok {
		if len(prompts) > maxWitnessPrompts-1 {
			prompts = prompts[:maxWitnessPrompts-1]
		}
		prompts = append(prompts, closing)
	}
	if len(prompts) > maxWitnessPrompts {
		prompts = prompts[:maxWitnessPrompts]
	}
	return prompts
}

// strategyPrompt returns the closing prompt a workflow's strategy
// contributes. Phase 2 and above get a perspective-shift framing;
// earlier phases get the strategy's plain noticing question.
// StrategyNone and unknown strategies contribute nothing.
func strategyPrompt(strategy SynthesisStrategy, phase int) (WitnessPrompt, bool) {
	var noticing, shift string
	switch strategy {
	case StrategyBirthBlueprint:
		noticing = "What would it mean to live from your design today, rather than from your conditioning?"
		shift = "If this blueprint belonged to a stranger, what would you notice about it that you cannot see in your own?"
	case StrategyDailyPractice:
		noticing = "Which of today's suggested practices does your body say yes to before your mind weighs in?"
		shift = "If today's guidance were advice you gave a friend, how would you want them to hold it?"
	case StrategyDecisionSupport:
		noticing = "What does the decision look like when you imagine it already made, each way?"
		shift = "Step into the person who has already chosen: what do they know that you are still debating?"
	case StrategySelfInquiry:
		noticing = "Who is the one reading these reflections right now?"
		shift = "If the one being described and the one reading are not the same, who is the reader?"
	case StrategyCreativeExpression:
		noticing = "What wants to be made through you today, before you judge whether it is any good?"
		shift = "How would your work change if you made it as a gift for someone who will never critique it?"
	case StrategyFullSpectrum:
		noticing = "Across every lens at once, what single thread keeps reappearing?"
		shift = "If each system were one witness describing the same event, what actually happened?"
	default:
		return WitnessPrompt{}, false
	}

	if phase >= 2 {
		return WitnessPrompt{
			Text:    shift,
			Inquiry: InquiryPerspectiveShift,
			Context: string(strategy),
		}, true
	}
	return WitnessPrompt{
		Text:    noticing,
		Inquiry: InquiryPatternNoticing,
		Context: string(strategy),
	}, true
}

func themePrompt(theme Theme, phase int) WitnessPrompt {
	sources := "this lens"
	if len(theme.Sources) > 1 {
		sources = fmt.Sprintf("%d different lenses", len(theme.Sources))
	}

	var text string
	switch phase {
	case 0:
		text = fmt.Sprintf(
			"Notice what arises when you read about '%s' appearing across %s. No need to interpret, just observe what you feel.",
			theme.Name, sources)
	case 1:
		text = fmt.Sprintf(
			"What patterns do you notice in how '%s' shows up across these different systems? What feels familiar about this theme?",
			theme.Name)
	case 2:
		text = fmt.Sprintf(
			"Who is the one observing '%s' through these multiple lenses? Can you find the one who recognizes this pattern?",
			theme.Name)
	case 3:
		text = fmt.Sprintf(
			"Given that '%s' appears across %s, how might you consciously embody this theme rather than be run by it?",
			theme.Name, sources)
	default:
		text = fmt.Sprintf(
			"What wants to emerge through '%s' as you hold this pattern from multiple perspectives?",
			theme.Name)
	}

	return WitnessPrompt{
		Text:    text,
		Inquiry: InquiryPatternNoticing,
		Context: theme.Name,
	}
}

func tensionPrompt(tension Tension, phase int) WitnessPrompt {
	a := tension.PerspectiveA.EngineID
	b := tension.PerspectiveB.EngineID

	var text string
	switch phase {
	case 0:
		text = fmt.Sprintf(
			"Notice the space between what %s shows and what %s suggests about '%s'. Just observe, where do you feel this in your body?",
			a, b, tension.Aspect)
	case 1:
		text = fmt.Sprintf(
			"Where do you feel the tension between %s and %s around '%s'? What does this polarity remind you of in your life?",
			a, b, tension.Aspect)
	case 2:
		text = fmt.Sprintf(
			"Who is aware of both %s and %s perspectives on '%s'? What is unchanging as you hold both views?",
			a, b, tension.Aspect)
	case 3:
		text = fmt.Sprintf(
			"How might you dance with the tension between %s and %s on '%s'? What becomes possible when you hold both as true?",
			a, b, tension.Aspect)
	default:
		text = fmt.Sprintf(
			"What wisdom lives in the space between these perspectives on '%s'?",
			tension.Aspect)
	}

	return WitnessPrompt{
		Text:    text,
		Inquiry: InquiryTensionExploration,
		Context: tension.Aspect,
	}
}

func alignmentPrompt(alignments []Alignment, phase int) WitnessPrompt {
	names := make([]string, 0, len(alignments))
	engines := make(map[string]bool)
	for _, a := range alignments {
		names = append(names, a.Aspect)
		for _, e := range a.Engines {
			engines[e] = true
		}
	}
	sort.Strings(names)
	joined := strings.Join(names, " and ")

	var text string
	switch phase {
	case 0:
		text = fmt.Sprintf(
			"Notice how %d systems agree on %s. What's it like to see this convergence?",
			len(engines), joined)
	case 1:
		text = fmt.Sprintf(
			"When multiple systems point to the same thing, %s, what does that stir in you?",
			strings.Join(names, ", "))
	case 2:
		text = fmt.Sprintf(
			"These systems didn't coordinate, yet they align on %s. Who is the one recognizing this pattern?",
			joined)
	case 3:
		text = fmt.Sprintf(
			"Given this convergence on %s, what action or non-action wants to arise?",
			joined)
	default:
		text = fmt.Sprintf(
			"What does it mean that %s emerges from multiple independent perspectives?",
			joined)
	}

	return WitnessPrompt{Text: text, Inquiry: InquiryUnderstanding}
}

func synthesisPrompt(synthesis SynthesisResult, phase int) WitnessPrompt {
	var text string
	switch phase {
	case 0:
		text = "As you take in all these perspectives together, what do you notice in your body right now?"
	case 1:
		text = "Looking at your patterns from these different angles, what's becoming clearer? What questions are arising?"
	case 2:
		text = "The systems point to patterns, but who is the one these patterns belong to? Can you find that one?"
	case 3:
		switch {
		case len(synthesis.Tensions) > 0 && len(synthesis.Alignments) > 0:
			text = "Holding both the alignments and tensions, what response (not reaction) wants to emerge?"
		case len(synthesis.Themes) > 0:
			text = "Given these themes, what is one conscious choice you could make today?"
		default:
			text = "What would it mean to author your day from this awareness?"
		}
	default:
		text = "What wants to move through you now that you've seen yourself from these perspectives?"
	}

	return WitnessPrompt{Text: text, Inquiry: InquiryIntegration}
}
