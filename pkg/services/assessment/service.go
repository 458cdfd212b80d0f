package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/checks"
	"github.com/de-tools/governance-atlas/pkg/services/compliance"
	"github.com/de-tools/governance-atlas/pkg/services/delta"
	"github.com/de-tools/governance-atlas/pkg/services/impact"
	"github.com/rs/zerolog"
)

type Settings struct {
	Thresholds checks.ScenarioThresholds
	// ExpiryWarning flags exemptions expiring within this window (default: 30 days)
	ExpiryWarning time.Duration
	// Initiative is used when the input names none
	Initiative string
}

func DefaultSettings() Settings {
	return Settings{
		Thresholds:    checks.DefaultScenarioThresholds(),
		ExpiryWarning: 30 * 24 * time.Hour,
	}
}

// Input is the collected tenant state. Records must already carry resolved definition metadata.
type Input struct {
	SourceTimestamp time.Time
	InitiativeName  string
	InitiativeFound bool
	Groups          []domain.ControlGroup
	Assignments     []domain.PolicyAssignmentRecord
	Exemptions      []domain.ExemptionRecord
	Facts           checks.ScenarioFacts
}

type Result struct {
	Snapshot   domain.Snapshot
	Compliance []compliance.GroupCompliance
	Tests      checks.Result
}

type Service interface {
	Classify(ctx context.Context, records []domain.PolicyAssignmentRecord) []domain.ScoredAssignment
	Run(ctx context.Context, in Input) (Result, error)
	Compare(ctx context.Context, previous, current domain.Snapshot) domain.DeltaReport
}

type service struct {
	classifier *impact.Classifier
	settings   Settings
}

func NewService(classifier *impact.Classifier, settings Settings) (Service, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	return &service{classifier: classifier, settings: settings}, nil
}

func (s *service) Classify(_ context.Context, records []domain.PolicyAssignmentRecord) []domain.ScoredAssignment {
	return s.classifier.ClassifyAll(records)
}

// Run classifies, maps compliance, runs both test phases and assembles the snapshot.
// Exemption expiry is judged against SourceTimestamp.
func (s *service) Run(ctx context.Context, in Input) (Result, error) {
	logger := zerolog.Ctx(ctx)

	initiative := in.InitiativeName
	if initiative == "" {
		initiative = s.settings.Initiative
	}

	scored := s.classifier.ClassifyAll(in.Assignments)
	mapped := compliance.MapCompliance(ctx, in.Groups, scored)

	tests, err := checks.Orchestrate(ctx, checks.Input{
		Groups: in.Groups,
		Framework: checks.FrameworkFacts{
			InitiativeName:       initiative,
			InitiativeFound:      in.InitiativeFound,
			InitiativeAssignment: findInitiative(scored, initiative),
			Compliance:           mapped,
			Exemptions:           in.Exemptions,
			AsOf:                 in.SourceTimestamp,
			ExpiryWarning:        s.settings.ExpiryWarning,
		},
		Scenario:   in.Facts,
		Thresholds: s.settings.Thresholds,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to run tests: %w", err)
	}

	counts := tests.Counts()
	logger.Info().
		Int("assignments", len(scored)).
		Int("exemptions", len(in.Exemptions)).
		Int("pass", counts[domain.TestPass]).
		Int("fail", counts[domain.TestFail]).
		Int("warn", counts[domain.TestWarn]).
		Int("skip", counts[domain.TestSkip]).
		Int("manual", counts[domain.TestManual]).
		Msg("assessment completed")

	return Result{
		Snapshot: domain.Snapshot{
			SourceTimestamp: in.SourceTimestamp,
			Assignments:     scored,
			Exemptions:      append(make([]domain.ExemptionRecord, 0, len(in.Exemptions)), in.Exemptions...),
			TestResults:     tests.Flatten(),
		},
		Compliance: mapped,
		Tests:      tests,
	}, nil
}

func (s *service) Compare(ctx context.Context, previous, current domain.Snapshot) domain.DeltaReport {
	return delta.Diff(ctx, previous, current)
}

// findInitiative returns the first initiative assignment whose display, assignment
// or definition name equals name. Enforced assignments are preferred.
func findInitiative(assignments []domain.ScoredAssignment, name string) *domain.ScoredAssignment {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var fallback *domain.ScoredAssignment
	for i := range assignments {
		r := assignments[i].Record
		if r.PolicyType != domain.PolicyTypeInitiative {
			continue
		}
		if !strings.EqualFold(r.DisplayName, name) && !strings.EqualFold(r.Name, name) && !strings.EqualFold(r.DefinitionName, name) {
			continue
		}
		if r.Enforced() {
			return &assignments[i]
		}
		if fallback == nil {
			fallback = &assignments[i]
		}
	}
	return fallback
}
