package moderation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/rules"
)

const defaultMaxTextLen = 5000

type Config struct {
	Version        string           `yaml:"version"`
	MaxTextLen     int              `yaml:"max_text_len"`
	ArchiveAllowed bool             `yaml:"archive_allowed"`
	Categories     []CategoryConfig `yaml:"categories"`
}

type CategoryConfig struct {
	Name            string   `yaml:"name"`
	ReviewThreshold float64  `yaml:"review_threshold"`
	BlockThreshold  float64  `yaml:"block_threshold"`
	Weight          float64  `yaml:"weight"`
	Keywords        []string `yaml:"keywords"`
	Phrases         []string `yaml:"phrases"`
	Patterns        []string `yaml:"patterns"`
	ScoreExprs      []string `yaml:"score_exprs"`
}

// CompiledPolicy is the immutable form the detector and blocker run
// against. A policy that fails to compile must fail engine construction,
// never pass content unchecked.
type CompiledPolicy struct {
	Version    string
	MaxTextLen int

	categories []compiledCategory
}

type compiledCategory struct {
	name            string
	reviewThreshold float64
	blockThreshold  float64
	weight          float64
	keywords        []string
	phrases         []string
	patterns        []*regexp.Regexp
	programs        []*vm.Program
}

func (c Config) Compile() (*CompiledPolicy, error) {
	if strings.TrimSpace(c.Version) == "" {
		return nil, fmt.Errorf("policy version is required")
	}

	maxLen := c.MaxTextLen
	if maxLen <= 0 {
		maxLen = defaultMaxTextLen
	}

	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("policy has no categories")
	}

	seen := make(map[string]bool, len(c.Categories))
	compiled := make([]compiledCategory, 0, len(c.Categories))
	for _, cat := range c.Categories {
		name := strings.TrimSpace(strings.ToLower(cat.Name))
		if name == "" {
			return nil, fmt.Errorf("category name is required")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = true

		if cat.ReviewThreshold <= 0 || cat.ReviewThreshold > 1 {
			return nil, fmt.Errorf("category %q: review threshold %v is out of (0,1]", name, cat.ReviewThreshold)
		}
		if cat.BlockThreshold <= 0 || cat.BlockThreshold > 1 {
			return nil, fmt.Errorf("category %q: block threshold %v is out of (0,1]", name, cat.BlockThreshold)
		}
		if cat.ReviewThreshold >= cat.BlockThreshold {
			return nil, fmt.Errorf("category %q: review threshold %v must be below block threshold %v", name, cat.ReviewThreshold, cat.BlockThreshold)
		}

		weight := cat.Weight
		if weight <= 0 {
			weight = 1
		}

		cc := compiledCategory{
			name:            name,
			reviewThreshold: cat.ReviewThreshold,
			blockThreshold:  cat.BlockThreshold,
			weight:          weight,
		}

		for _, kw := range cat.Keywords {
			kw = rules.NormalizeText(kw)
			if kw != "" {
				cc.keywords = append(cc.keywords, kw)
			}
		}
		for _, ph := range cat.Phrases {
			ph = rules.NormalizeText(ph)
			if ph != "" {
				cc.phrases = append(cc.phrases, ph)
			}
		}

		for _, raw := range cat.Patterns {
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("category %q: compile pattern %q: %w", name, raw, err)
			}
			cc.patterns = append(cc.patterns, re)
		}

		for _, src := range cat.ScoreExprs {
			program, err := expr.Compile(src, expr.Env(exprEnv("", "")))
			if err != nil {
				return nil, fmt.Errorf("category %q: compile score expr %q: %w", name, src, err)
			}
			cc.programs = append(cc.programs, program)
		}

		if len(cc.keywords) == 0 && len(cc.phrases) == 0 && len(cc.patterns) == 0 && len(cc.programs) == 0 {
			return nil, fmt.Errorf("category %q has no matchers", name)
		}

		compiled = append(compiled, cc)
	}

	sort.Slice(compiled, func(i, j int) bool {
		return compiled[i].name < compiled[j].name
	})

	return &CompiledPolicy{
		Version:    c.Version,
		MaxTextLen: maxLen,
		categories: compiled,
	}, nil
}

// DefaultPolicy is the baseline rule set used when the config file does
// not carry a moderation section. Operators replace it in production.
func DefaultPolicy() Config {
	return Config{
		Version:    "baseline-1",
		MaxTextLen: defaultMaxTextLen,
		Categories: []CategoryConfig{
			{
				Name:            "spam",
				ReviewThreshold: 0.4,
				BlockThreshold:  0.6,
				Phrases: []string{
					"buy cheap followers",
					"free followers",
					"get rich quick",
					"subscribe to my channel",
				},
				Patterns: []string{
					`(?:https?://|www\.)\S+`,
				},
				ScoreExprs: []string{
					`exclamations >= 3 && links > 0 ? 0.9 : 0.0`,
				},
			},
			{
				Name:            "pii_leak",
				ReviewThreshold: 0.3,
				BlockThreshold:  0.7,
				Patterns: []string{
					`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
					`\+?\d[\d\s().-]{8,}\d`,
				},
			},
			{
				Name:            "flood",
				ReviewThreshold: 0.3,
				BlockThreshold:  0.8,
				ScoreExprs: []string{
					`repeats >= 8 ? 0.85 : (repeats >= 5 ? 0.5 : 0.0)`,
					`length > 200 && words < 4 ? 0.6 : 0.0`,
				},
			},
		},
	}
}

func exprEnv(normalized, raw string) map[string]interface{} {
	words := 0
	if normalized != "" {
		words = len(strings.Fields(normalized))
	}

	return map[string]interface{}{
		"text":         normalized,
		"raw":          raw,
		"length":       len([]rune(normalized)),
		"words":        words,
		"links":        countMatches(linkPattern, normalized),
		"exclamations": strings.Count(raw, "!"),
		"digits":       countDigits(normalized),
		"repeats":      longestRun(normalized),
	}
}

var linkPattern = regexp.MustCompile(`(?:https?://|www\.)\S+`)

func countMatches(re *regexp.Regexp, text string) int {
	if text == "" {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

func countDigits(text string) int {
	count := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func longestRun(text string) int {
	longest := 0
	run := 0
	var last rune
	for i, r := range text {
		if i > 0 && r == last {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		last = r
	}
	return longest
}
