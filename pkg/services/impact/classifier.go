package impact

import (
	"fmt"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

// Classifier scores policy assignments against a fixed set of rules.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules *Rules
}

func NewClassifier(rules *Rules) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefaultClassifier builds a classifier over the embedded rule tables.
func NewDefaultClassifier() (*Classifier, error) {
	rules, err := DefaultRules()
	if err != nil {
		return nil, err
	}
	return NewClassifier(rules), nil
}

// Classify maps one record to its impact score. The rules are applied in a fixed
// order: base by effect, category inference for variable effects, display-name
// keywords (raise only), enforcement override, risk bonus.
func (c *Classifier) Classify(record domain.PolicyAssignmentRecord) domain.ImpactScore {
	score, ok := c.rules.effects[record.Effect]
	if !ok {
		score = c.rules.fallback
	}
	notes := []string{score.Recommendation}

	if record.Effect == domain.EffectDisabled {
		return score
	}

	if record.Effect.Variable() {
		notes = append(notes, c.inferFromCategory(&score, record.Category))
	}

	name := record.DisplayName
	if name == "" {
		name = record.Name
	}
	for _, kw := range c.rules.keywords {
		if !kw.pattern.MatchString(name) {
			continue
		}
		kw.raise(&score)
		notes = append(notes, kw.recommendation)
	}

	if record.EnforcementMode == domain.EnforcementDoNotEnforce {
		score.SecurityImpact = domain.ImpactNone
		score.ComplianceImpact = domain.ImpactLow
		notes = append(notes, c.rules.notEnforced)
	}
	if c.hasRiskBonus(record) && score.RiskLevel > domain.RiskLow {
		score.RiskLevel--
	}

	score.Recommendation = joinNotes(notes)
	return score
}

// ClassifyAll scores every record, preserving input order.
func (c *Classifier) ClassifyAll(records []domain.PolicyAssignmentRecord) []domain.ScoredAssignment {
	scored := make([]domain.ScoredAssignment, 0, len(records))
	for _, r := range records {
		scored = append(scored, domain.ScoredAssignment{Record: r, Score: c.Classify(r)})
	}
	return scored
}

func (c *Classifier) inferFromCategory(score *domain.ImpactScore, category string) string {
	key := normalizeCategory(category)
	if key == "" {
		return "Effect varies by parameter and no category is available; using conservative defaults."
	}

	adj := c.rules.categoryFallback
	for _, rule := range c.rules.categories {
		if _, ok := rule.categories[key]; ok {
			adj = rule.adjustment
			break
		}
	}
	adj.set(score)

	score.OperationalOverhead = c.rules.overheadFallback
	for _, rule := range c.rules.overhead {
		if _, ok := rule.categories[key]; ok {
			score.OperationalOverhead = rule.level
			break
		}
	}

	return fmt.Sprintf("Effect varies by parameter; impact inferred from category %s.", strings.TrimSpace(category))
}

func (c *Classifier) hasRiskBonus(record domain.PolicyAssignmentRecord) bool {
	if c.rules.riskBonus == nil {
		return false
	}
	return c.rules.riskBonus.MatchString(string(record.Effect) + " " + record.EffectSummary)
}

// set overwrites the dimensions the adjustment carries.
func (a adjustment) set(score *domain.ImpactScore) {
	if a.security != nil {
		score.SecurityImpact = *a.security
	}
	if a.cost != nil {
		score.CostImpact = *a.cost
	}
	if a.compliance != nil {
		score.ComplianceImpact = *a.compliance
	}
	if a.overhead != nil {
		score.OperationalOverhead = *a.overhead
	}
}

// raise applies the adjustment without lowering any dimension.
func (a adjustment) raise(score *domain.ImpactScore) {
	if a.security != nil {
		score.SecurityImpact = domain.MaxImpact(score.SecurityImpact, *a.security)
	}
	if a.cost != nil {
		score.CostImpact = domain.MaxImpact(score.CostImpact, *a.cost)
	}
	if a.compliance != nil {
		score.ComplianceImpact = domain.MaxImpact(score.ComplianceImpact, *a.compliance)
	}
	if a.overhead != nil {
		score.OperationalOverhead = domain.MaxImpact(score.OperationalOverhead, *a.overhead)
	}
}

func joinNotes(notes []string) string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}
