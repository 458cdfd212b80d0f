package impact

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

type rulesFile struct {
	Default          profileSpec     `yaml:"default"`
	Effects          []effectSpec    `yaml:"effects"`
	Categories       []categorySpec  `yaml:"categories"`
	CategoryFallback profileSpec     `yaml:"category_fallback"`
	Overhead         []overheadSpec  `yaml:"overhead"`
	OverheadFallback string          `yaml:"overhead_fallback"`
	Keywords         []keywordSpec   `yaml:"keywords"`
	RiskBonus        string          `yaml:"risk_bonus"`
	NotEnforced      string          `yaml:"not_enforced_notice"`
}

type profileSpec struct {
	Security       string `yaml:"security"`
	Cost           string `yaml:"cost"`
	Compliance     string `yaml:"compliance"`
	Overhead       string `yaml:"overhead"`
	Risk           string `yaml:"risk"`
	Recommendation string `yaml:"recommendation"`
}

type effectSpec struct {
	Effects     []string `yaml:"effects"`
	profileSpec `yaml:",inline"`
}

type categorySpec struct {
	Categories  []string `yaml:"categories"`
	profileSpec `yaml:",inline"`
}

type overheadSpec struct {
	Categories []string `yaml:"categories"`
	Level      string   `yaml:"level"`
}

type keywordSpec struct {
	ID          string `yaml:"id"`
	Pattern     string `yaml:"pattern"`
	profileSpec `yaml:",inline"`
}

// adjustment holds the dimensions a rule sets; nil means untouched.
type adjustment struct {
	security   *domain.ImpactLevel
	cost       *domain.ImpactLevel
	compliance *domain.ImpactLevel
	overhead   *domain.ImpactLevel
}

type categoryRule struct {
	categories map[string]struct{}
	adjustment
}

type overheadRule struct {
	categories map[string]struct{}
	level      domain.ImpactLevel
}

type keywordRule struct {
	id             string
	pattern        *regexp.Regexp
	recommendation string
	adjustment
}

// Rules is the compiled, read-only classification configuration.
type Rules struct {
	fallback         domain.ImpactScore
	effects          map[domain.Effect]domain.ImpactScore
	categories       []categoryRule
	categoryFallback adjustment
	overhead         []overheadRule
	overheadFallback domain.ImpactLevel
	keywords         []keywordRule
	riskBonus        *regexp.Regexp
	notEnforced      string
}

// DefaultRules compiles the tables embedded in the binary.
func DefaultRules() (*Rules, error) {
	return ParseRules(embeddedRules)
}

// LoadRules compiles a rules file from disk, replacing the embedded tables entirely.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return file.compile()
}

func (f rulesFile) compile() (*Rules, error) {
	fallback, err := f.Default.score()
	if err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	rules := &Rules{
		fallback:    fallback,
		effects:     make(map[domain.Effect]domain.ImpactScore),
		notEnforced: f.NotEnforced,
	}

	for _, spec := range f.Effects {
		score, err := spec.score()
		if err != nil {
			return nil, fmt.Errorf("effect profile %v: %w", spec.Effects, err)
		}
		for _, e := range spec.Effects {
			effect := domain.ParseEffect(e)
			if _, exists := rules.effects[effect]; exists {
				return nil, fmt.Errorf("duplicate effect profile: %s", e)
			}
			rules.effects[effect] = score
		}
	}

	for _, spec := range f.Categories {
		adj, err := spec.adjustment()
		if err != nil {
			return nil, fmt.Errorf("category rule %v: %w", spec.Categories, err)
		}
		rules.categories = append(rules.categories, categoryRule{categories: categorySet(spec.Categories), adjustment: adj})
	}

	if rules.categoryFallback, err = f.CategoryFallback.adjustment(); err != nil {
		return nil, fmt.Errorf("category fallback: %w", err)
	}

	for _, spec := range f.Overhead {
		level, err := domain.ParseImpactLevel(spec.Level)
		if err != nil {
			return nil, fmt.Errorf("overhead rule %v: %w", spec.Categories, err)
		}
		rules.overhead = append(rules.overhead, overheadRule{categories: categorySet(spec.Categories), level: level})
	}

	rules.overheadFallback = domain.ImpactLow
	if f.OverheadFallback != "" {
		if rules.overheadFallback, err = domain.ParseImpactLevel(f.OverheadFallback); err != nil {
			return nil, fmt.Errorf("overhead fallback: %w", err)
		}
	}

	for _, spec := range f.Keywords {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile keyword %s: %w", spec.ID, err)
		}
		adj, err := spec.adjustment()
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", spec.ID, err)
		}
		rules.keywords = append(rules.keywords, keywordRule{
			id:             spec.ID,
			pattern:        re,
			recommendation: spec.Recommendation,
			adjustment:     adj,
		})
	}

	if f.RiskBonus != "" {
		if rules.riskBonus, err = regexp.Compile(f.RiskBonus); err != nil {
			return nil, fmt.Errorf("failed to compile risk bonus pattern: %w", err)
		}
	}

	return rules, nil
}

func (p profileSpec) score() (domain.ImpactScore, error) {
	levels := make([]domain.ImpactLevel, 4)
	for i, s := range []string{p.Security, p.Cost, p.Compliance, p.Overhead} {
		level, err := domain.ParseImpactLevel(s)
		if err != nil {
			return domain.ImpactScore{}, err
		}
		levels[i] = level
	}
	risk, err := domain.ParseRiskLevel(p.Risk)
	if err != nil {
		return domain.ImpactScore{}, err
	}
	return domain.ImpactScore{
		SecurityImpact:      levels[0],
		CostImpact:          levels[1],
		ComplianceImpact:    levels[2],
		OperationalOverhead: levels[3],
		RiskLevel:           risk,
		Recommendation:      p.Recommendation,
	}, nil
}

func (p profileSpec) adjustment() (adjustment, error) {
	var adj adjustment
	targets := []struct {
		value string
		dst   **domain.ImpactLevel
	}{
		{p.Security, &adj.security},
		{p.Cost, &adj.cost},
		{p.Compliance, &adj.compliance},
		{p.Overhead, &adj.overhead},
	}
	for _, t := range targets {
		if t.value == "" {
			continue
		}
		level, err := domain.ParseImpactLevel(t.value)
		if err != nil {
			return adjustment{}, err
		}
		*t.dst = &level
	}
	return adj, nil
}

func categorySet(categories []string) map[string]struct{} {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[normalizeCategory(c)] = struct{}{}
	}
	return set
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
