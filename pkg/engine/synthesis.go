package engine

import (
	"fmt"
	"sort"
	"strings"
)

// themeCategory classifies what a cross-engine theme speaks to.
type themeCategory string

const (
	categoryIdentity  themeCategory = "identity"
	categoryTiming    themeCategory = "timing"
	categoryShadow    themeCategory = "shadow"
	categoryGift      themeCategory = "gift"
	categoryDirection themeCategory = "direction"
)

// categoryKeywords maps each category to the terms that mark an engine
// output as contributing to it.
var categoryKeywords = map[themeCategory][]string{
	categoryIdentity: {
		"type", "path", "number", "profile", "nature", "essence",
		"personality", "character", "archetype", "core",
	},
	categoryTiming: {
		"time", "day", "period", "cycle", "phase", "moment",
		"auspicious", "favorable", "muhurta", "karana",
	},
	categoryShadow: {
		"shadow", "fear", "challenge", "growth", "lesson",
		"obstacle", "resistance", "blind spot", "trigger",
	},
	categoryGift: {
		"gift", "strength", "talent", "channel", "gate",
		"potential", "ability", "virtue", "blessing",
	},
	categoryDirection: {
		"direction", "guidance", "advice", "counsel",
		"movement", "action", "decision", "choice", "next step",
	},
}

// themeSynonyms maps raw terms to their canonical theme name.
var themeSynonyms = map[string]string{
	"leader":          "leadership",
	"authority":       "leadership",
	"commanding":      "leadership",
	"executive":       "leadership",
	"chief":           "leadership",
	"creative":        "creativity",
	"artistic":        "creativity",
	"imaginative":     "creativity",
	"inventive":       "creativity",
	"innovative":      "creativity",
	"reflection":      "introspection",
	"contemplation":   "introspection",
	"inner work":      "introspection",
	"self-reflection": "introspection",
	"meditation":      "introspection",
	"inner journey":   "introspection",
	"expression":      "communication",
	"speaking":        "communication",
	"voice":           "communication",
	"articulation":    "communication",
	"change":          "transformation",
	"evolution":       "transformation",
	"metamorphosis":   "transformation",
	"shift":           "transformation",
	"instinct":        "intuition",
	"gut feeling":     "intuition",
	"inner knowing":   "intuition",
	"sixth sense":     "intuition",
	"structure":       "discipline",
	"order":           "discipline",
	"routine":         "discipline",
	"organization":    "discipline",
	"relationship":    "connection",
	"bonding":         "connection",
	"partnership":     "connection",
	"union":           "connection",
}

// themeDescriptions holds the description text for well-known themes,
// including those only reachable through a strategy vocabulary.
var themeDescriptions = map[string]string{
	"leadership":     "An emphasis on initiating, directing, and carrying authority",
	"creativity":     "An emphasis on creative and adaptive expression",
	"introspection":  "A pull toward depth, solitude, and inner work",
	"communication":  "An emphasis on voice, expression, and articulation",
	"transformation": "A period or pattern of deep change",
	"intuition":      "A reliance on inner knowing over analysis",
	"discipline":     "An emphasis on structure, routine, and foundation",
	"connection":     "An emphasis on relationship and belonging",
	"purpose":        "A sense of calling that organizes the whole chart",
	"embodiment":     "An emphasis on the body as the site of practice",
	"rest":           "A need to restore before the next effort",
	"decision":       "A choice point asking for clarity and commitment",
	"awareness":      "The capacity to observe experience without merging with it",
	"play":           "A willingness to create without attachment to outcome",
}

// tensionPair names two themes that pull in different directions, with a
// suggestion for holding both.
type tensionPair struct {
	themeA, themeB string
	aspect         string
	description    string
	hint           string
}

var tensionPairs = []tensionPair{
	{
		themeA:      "introspection",
		themeB:      "leadership",
		aspect:      "Visibility vs Introspection",
		description: "Inner need for solitude meets design for public impact",
		hint: "Consider periods of retreat followed by strategic emergence. " +
			"Your insights from solitude fuel your public impact.",
	},
	{
		themeA:      "discipline",
		themeB:      "creativity",
		aspect:      "Structure vs Spontaneity",
		description: "A need for ordered routine meets a pull toward open-ended play",
		hint: "Let structure hold the container and creativity fill it. " +
			"A reliable rhythm can make room for improvisation rather than crowd it out.",
	},
	{
		themeA:      "intuition",
		themeB:      "communication",
		aspect:      "Inner Knowing vs Outer Expression",
		description: "What is known wordlessly resists being said aloud",
		hint: "Practice translating felt sense into words without demanding precision. " +
			"Speaking the approximate truth keeps the knowing alive.",
	},
}

// strategyVocab extends the base vocabulary for one synthesis strategy:
// extra scan synonyms and extra opposing-theme pairs. Each strategy
// listens for the language of its own workflow family, so the same
// engine outputs synthesize differently under different strategies.
type strategyVocab struct {
	synonyms map[string]string
	tensions []tensionPair
}

var strategyVocabs = buildStrategyVocabs()

func buildStrategyVocabs() map[SynthesisStrategy]strategyVocab {
	vocabs := map[SynthesisStrategy]strategyVocab{
		StrategyBirthBlueprint: {
			synonyms: map[string]string{
				"life path":   "purpose",
				"destiny":     "purpose",
				"calling":     "purpose",
				"incarnation": "purpose",
				"blueprint":   "purpose",
				"soul urge":   "purpose",
			},
			tensions: []tensionPair{{
				themeA:      "purpose",
				themeB:      "discipline",
				aspect:      "Calling vs Groundwork",
				description: "A felt sense of destiny meets the demands of daily structure",
				hint: "Let the calling set the direction and the routine set the pace. " +
					"Purpose without groundwork stays a fantasy; groundwork without purpose becomes a grind.",
			}},
		},
		StrategyDailyPractice: {
			synonyms: map[string]string{
				"exercise":    "embodiment",
				"body":        "embodiment",
				"breath":      "embodiment",
				"physical":    "embodiment",
				"sleep":       "rest",
				"restoration": "rest",
				"stillness":   "rest",
				"pause":       "rest",
			},
			tensions: []tensionPair{{
				themeA:      "embodiment",
				themeB:      "rest",
				aspect:      "Effort vs Recovery",
				description: "A push toward physical activity meets a need to restore",
				hint: "Alternate rather than choose. A practice day that honors both " +
					"effort and recovery outlasts one that rides a single gear.",
			}},
		},
		StrategyDecisionSupport: {
			synonyms: map[string]string{
				"crossroads": "decision",
				"fork":       "decision",
				"dilemma":    "decision",
				"trade-off":  "decision",
				"option":     "decision",
			},
			tensions: []tensionPair{{
				themeA:      "decision",
				themeB:      "intuition",
				aspect:      "Analysis vs Instinct",
				description: "Weighing options meets a gut answer already present",
				hint: "Write the analysis down, then sit with the felt answer before reading it back. " +
					"When both point the same way, move; when they differ, the difference is the information.",
			}},
		},
		StrategySelfInquiry: {
			synonyms: map[string]string{
				"witness":        "awareness",
				"presence":       "awareness",
				"observer":       "awareness",
				"attention":      "awareness",
				"identification": "awareness",
			},
			tensions: []tensionPair{{
				themeA:      "awareness",
				themeB:      "transformation",
				aspect:      "Acceptance vs Change",
				description: "Resting in what is meets the drive to become otherwise",
				hint: "Change that starts from self-rejection repeats the old pattern. " +
					"Let seeing come first; what is fully seen tends to move on its own.",
			}},
		},
		StrategyCreativeExpression: {
			synonyms: map[string]string{
				"muse":          "play",
				"improvisation": "play",
				"experiment":    "play",
				"spontaneity":   "play",
			},
			tensions: []tensionPair{{
				themeA:      "play",
				themeB:      "discipline",
				aspect:      "Play vs Perfection",
				description: "Unselfconscious making meets the urge to polish and judge",
				hint: "Separate the making session from the editing session. " +
					"The judge is useful, just not while the material is still arriving.",
			}},
		},
	}

	// Full-spectrum listens for everything every other strategy does.
	full := strategyVocab{synonyms: make(map[string]string)}
	for _, v := range vocabs {
		for term, canonical := range v.synonyms {
			full.synonyms[term] = canonical
		}
		full.tensions = append(full.tensions, v.tensions...)
	}
	sort.Slice(full.tensions, func(i, j int) bool {
		return full.tensions[i].aspect < full.tensions[j].aspect
	})
	vocabs[StrategyFullSpectrum] = full

	return vocabs
}

// scanTerms is the base vocabulary matched against engine output text:
// every category keyword plus every synonym term.
var scanTerms = buildScanTerms()

func buildScanTerms() []string {
	seen := make(map[string]bool)
	var terms []string
	for _, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if !seen[kw] {
				seen[kw] = true
				terms = append(terms, kw)
			}
		}
	}
	for term := range themeSynonyms {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}

// scanTermsFor appends a strategy's extra synonym terms to the base
// vocabulary, deduplicated and sorted for deterministic scanning.
func scanTermsFor(vocab strategyVocab) []string {
	if len(vocab.synonyms) == 0 {
		return scanTerms
	}
	seen := make(map[string]bool, len(scanTerms))
	terms := make([]string, 0, len(scanTerms)+len(vocab.synonyms))
	for _, term := range scanTerms {
		seen[term] = true
		terms = append(terms, term)
	}
	for term := range vocab.synonyms {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}

// Synthesize combines the successful outputs of a workflow into a
// cross-engine analysis: recurring themes (with strength proportional to
// how many engines contribute), alignments where systems agree, and
// tensions where they pull apart.
//
// Synthesis degrades with its inputs. A single result still yields its
// own themes; an empty result map yields an empty analysis with an
// explanatory summary.
func Synthesize(strategy SynthesisStrategy, results map[string]*Output) SynthesisResult {
	if strategy == StrategyNone {
		return SynthesisResult{Summary: "No cross-engine synthesis was requested."}
	}
	if len(results) == 0 {
		return SynthesisResult{Summary: "No engine results were available to synthesize."}
	}

	vocab := strategyVocabs[strategy]
	themes := extractThemes(results, vocab)
	alignments := deriveAlignments(themes)
	tensions := deriveTensions(themes, vocab)
	summary := buildSummary(themes, alignments, tensions, len(results))

	return SynthesisResult{
		Themes:     themes,
		Alignments: alignments,
		Tensions:   tensions,
		Summary:    summary,
	}
}

// extractThemes scans each output's result payload and witness prompt for
// category keywords, normalizes matches to canonical theme names, and
// returns themes ordered strongest first (name ascending on ties).
func extractThemes(results map[string]*Output, vocab strategyVocab) []Theme {
	engineIDs := make([]string, 0, len(results))
	for id := range results {
		engineIDs = append(engineIDs, id)
	}
	sort.Strings(engineIDs)

	terms := scanTermsFor(vocab)
	byName := make(map[string]*Theme)
	for _, engineID := range engineIDs {
		out := results[engineID]
		if out == nil {
			continue
		}
		text := strings.ToLower(string(out.Result) + " " + out.WitnessPrompt)

		seen := make(map[string]bool)
		for _, term := range terms {
			if !strings.Contains(text, term) {
				continue
			}
			name := normalizeTheme(term, vocab)
			if seen[name] {
				continue
			}
			seen[name] = true

			theme, ok := byName[name]
			if !ok {
				theme = &Theme{
					Name:        titleTheme(name),
					Description: describeTheme(name),
				}
				byName[name] = theme
			}
			theme.AddSource(engineID)
		}
	}

	themes := make([]Theme, 0, len(byName))
	for _, t := range byName {
		themes = append(themes, *t)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Strength != themes[j].Strength {
			return themes[i].Strength > themes[j].Strength
		}
		return themes[i].Name < themes[j].Name
	})
	return themes
}

// deriveAlignments promotes every theme that two or more engines agree on
// into an alignment. Confidence grows with the number of agreeing engines.
func deriveAlignments(themes []Theme) []Alignment {
	var alignments []Alignment
	for _, t := range themes {
		if len(t.Sources) < 2 {
			continue
		}
		confidence := 0.6 + 0.1*float64(len(t.Sources)-2)
		if confidence > 0.9 {
			confidence = 0.9
		}
		alignments = append(alignments, Alignment{
			Aspect:      t.Name + " alignment",
			Description: fmt.Sprintf("%d systems independently emphasize %s", len(t.Sources), strings.ToLower(t.Name)),
			Engines:     append([]string(nil), t.Sources...),
			Confidence:  confidence,
		})
	}
	return alignments
}

// deriveTensions reports each known opposing theme pair, base plus the
// strategy's own, where both themes are present with disjoint leading
// sources.
func deriveTensions(themes []Theme, vocab strategyVocab) []Tension {
	byName := make(map[string]Theme, len(themes))
	for _, t := range themes {
		byName[strings.ToLower(t.Name)] = t
	}

	pairs := tensionPairs
	if len(vocab.tensions) > 0 {
		pairs = append(append([]tensionPair(nil), tensionPairs...), vocab.tensions...)
	}

	var tensions []Tension
	for _, pair := range pairs {
		a, okA := byName[pair.themeA]
		b, okB := byName[pair.themeB]
		if !okA || !okB || len(a.Sources) == 0 || len(b.Sources) == 0 {
			continue
		}
		// A tension needs two distinct voices, not one engine arguing
		// with itself.
		if a.Sources[0] == b.Sources[0] && len(a.Sources) == 1 && len(b.Sources) == 1 {
			continue
		}
		tensions = append(tensions, Tension{
			Aspect:      pair.aspect,
			Description: pair.description,
			PerspectiveA: Perspective{
				EngineID: a.Sources[0],
				View:     a.Description,
			},
			PerspectiveB: Perspective{
				EngineID: b.Sources[0],
				View:     b.Description,
			},
			IntegrationHint: pair.hint,
		})
	}
	return tensions
}

// buildSummary renders a short narrative over the synthesis findings.
func buildSummary(themes []Theme, alignments []Alignment, tensions []Tension, engineCount int) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d engine perspectives were analyzed", engineCount))

	var strong []string
	for _, t := range themes {
		if t.Strength >= 0.4 && len(strong) < 3 {
			strong = append(strong, t.Name)
		}
	}
	if len(strong) > 0 {
		parts = append(parts, "Key themes across systems: "+strings.Join(strong, ", "))
	}

	if len(alignments) > 0 {
		names := make([]string, 0, len(alignments))
		for _, a := range alignments {
			names = append(names, a.Aspect)
		}
		parts = append(parts, "Systems align on: "+strings.Join(names, ", "))
	}

	if len(tensions) > 0 {
		names := make([]string, 0, len(tensions))
		for _, t := range tensions {
			names = append(names, t.Aspect)
		}
		parts = append(parts, "Creative tensions to explore: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, ". ") + "."
}

// normalizeTheme maps a matched keyword to its canonical theme name.
// Strategy synonyms take precedence over the base table.
func normalizeTheme(term string, vocab strategyVocab) string {
	lower := strings.ToLower(term)
	if canonical, ok := vocab.synonyms[lower]; ok {
		return canonical
	}
	if canonical, ok := themeSynonyms[lower]; ok {
		return canonical
	}
	return lower
}

// titleTheme capitalizes the first letter of a canonical theme name.
func titleTheme(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// describeTheme returns the description for a canonical theme name.
func describeTheme(name string) string {
	if desc, ok := themeDescriptions[name]; ok {
		return desc
	}
	return fmt.Sprintf("The pattern of %s surfaces across systems", name)
}
