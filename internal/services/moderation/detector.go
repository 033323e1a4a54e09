package moderation

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/sync/errgroup"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/rules"
)

const (
	detectorName = "lexical-v1"

	keywordBaseScore = 0.7
	phraseBaseScore  = 0.8
	patternBaseScore = 0.9

	scanConcurrency = 4
)

// Detector evaluates text against every category of a compiled policy.
// It is pure: no I/O, deterministic for the same text and policy.
type Detector struct {
	policy *CompiledPolicy
}

func NewDetector(policy *CompiledPolicy) *Detector {
	return &Detector{policy: policy}
}

func (d *Detector) Version() string {
	if d == nil || d.policy == nil {
		return detectorName
	}
	return detectorName + "@" + d.policy.Version
}

// Detect reports every category that scores above zero. Clean text is an
// empty Categories slice with a nil error, never an error. Categories are
// keyed by name with the highest score per category and returned sorted
// by name.
func (d *Detector) Detect(text string) (model.DetectionResult, error) {
	if d == nil || d.policy == nil {
		return model.DetectionResult{}, &DetectionError{Err: fmt.Errorf("detector policy is nil")}
	}

	normalized := rules.NormalizeText(text)
	collapsed := rules.CollapseRepeats(normalized, 1)
	env := exprEnv(normalized, text)

	// One result slot per category keeps the concurrent scan
	// order-insensitive.
	slots := make([]*model.CategoryScore, len(d.policy.categories))

	var g errgroup.Group
	g.SetLimit(scanConcurrency)
	for i := range d.policy.categories {
		i := i
		cat := d.policy.categories[i]
		g.Go(func() error {
			score, err := scanCategory(cat, normalized, collapsed, env)
			if err != nil {
				return err
			}
			if score != nil {
				slots[i] = score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.DetectionResult{}, err
	}

	result := model.DetectionResult{
		Categories:      make([]model.CategoryScore, 0, len(slots)),
		DetectorVersion: d.Version(),
	}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		result.Categories = append(result.Categories, *slot)
		if slot.Score > result.MaxScore {
			result.MaxScore = slot.Score
		}
	}

	return result, nil
}

func scanCategory(cat compiledCategory, normalized, collapsed string, env map[string]interface{}) (*model.CategoryScore, error) {
	best := 0.0
	var span *model.Span

	record := func(score float64, start, end int) {
		score = clampScore(score * cat.weight)
		if score <= best {
			return
		}
		best = score
		if start >= 0 {
			span = &model.Span{Start: start, End: end}
		} else {
			span = nil
		}
	}

	for _, kw := range cat.keywords {
		if idx := indexWord(normalized, kw); idx >= 0 {
			record(keywordBaseScore, idx, idx+len(kw))
		} else if indexWord(collapsed, rules.CollapseRepeats(kw, 1)) >= 0 {
			// Elongated evasion ("riiich"). Both sides are collapsed
			// to single runs; offsets in the collapsed text do not
			// map back, so no span.
			record(keywordBaseScore, -1, -1)
		}
	}
	for _, ph := range cat.phrases {
		if idx := strings.Index(normalized, ph); idx >= 0 {
			record(phraseBaseScore, idx, idx+len(ph))
		} else if strings.Contains(collapsed, rules.CollapseRepeats(ph, 1)) {
			record(phraseBaseScore, -1, -1)
		}
	}
	for _, re := range cat.patterns {
		if loc := re.FindStringIndex(normalized); loc != nil {
			record(patternBaseScore, loc[0], loc[1])
		}
	}
	for _, program := range cat.programs {
		score, err := runScoreProgram(program, env)
		if err != nil {
			return nil, &DetectionError{Category: cat.name, Err: err}
		}
		if score > 0 {
			record(score, -1, -1)
		}
	}

	if best <= 0 {
		return nil, nil
	}

	return &model.CategoryScore{
		Category: cat.name,
		Score:    best,
		Span:     span,
	}, nil
}

// indexWord finds kw in text on word boundaries so "class" does not
// trigger a keyword "ass".
func indexWord(text, kw string) int {
	offset := 0
	for {
		idx := strings.Index(text[offset:], kw)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(kw)
		startOK := start == 0 || !isWordByte(text[start-1])
		endOK := end == len(text) || !isWordByte(text[end])
		if startOK && endOK {
			return start
		}
		offset = start + 1
		if offset >= len(text) {
			return -1
		}
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func runScoreProgram(program *vm.Program, env map[string]interface{}) (float64, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("score expression returned %T, want a number", out)
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
