// Package validator runs the multi-pass static analysis pipeline over a
// parsed rule source (§4.8): syntax, naming, dependency, logic, performance,
// and best-practices. Each pass is independent and contributes Issues to a
// single flat Report; a CRITICAL syntax issue aborts the remaining passes.
//
// Issues are modeled after the teacher's pkg/models/violation.go shape
// (severity, message, a location reference) generalised from a runtime
// trace violation to a static authoring-time finding.
package validator

import (
	"fmt"

	"github.com/fireflyframework/ruleenginectl/internal/observability"
	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

// Severity orders findings the way the quality score weighs them.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Issue is one finding produced by a validation pass.
type Issue struct {
	Code       string               `json:"code"`
	Severity   Severity             `json:"severity"`
	Message    string               `json:"message"`
	Location   rules.SourceLocation `json:"location"`
	Suggestion string               `json:"suggestion,omitempty"`
	Examples   []string             `json:"examples,omitempty"`
}

// MarshalJSON renders Severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Status summarises a Report at the level callers act on.
type Status string

const (
	StatusValid         Status = "VALID"
	StatusWarning       Status = "WARNING"
	StatusError         Status = "ERROR"
	StatusCriticalError Status = "CRITICAL_ERROR"
)

// Report is the outcome of running the full pipeline over one rule source.
type Report struct {
	Issues       []Issue `json:"issues"`
	Status       Status  `json:"status"`
	QualityScore int     `json:"qualityScore"`
}

// pass is one independent analysis stage. It receives the parsed AST (nil
// if parsing failed, in which case only the syntax pass runs) and the raw
// source text (for passes that need to see the document before assembly).
type pass struct {
	name string
	run  func(source string, dsl *rules.RulesDSL, parseErr error) []Issue
}

func passes() []pass {
	return []pass{
		{"syntax", runSyntaxPass},
		{"naming", runNamingPass},
		{"dependency", runDependencyPass},
		{"logic", runLogicPass},
		{"performance", runPerformancePass},
		{"best_practices", runBestPracticesPass},
	}
}

// Validate runs every pass over source. dsl and parseErr are the result of
// attempting to assemble source with the caller's chosen parser (typically
// yamlrule.Parse); parseErr is non-nil exactly when dsl is nil.
func Validate(source string, dsl *rules.RulesDSL, parseErr error) *Report {
	report := &Report{}

	for _, p := range passes() {
		issues := p.run(source, dsl, parseErr)
		report.Issues = append(report.Issues, issues...)
		if p.name == "syntax" && hasCritical(issues) {
			break
		}
	}

	report.Status = statusFor(report.Issues)
	report.QualityScore = scoreFor(report.Issues)

	for _, issue := range report.Issues {
		observability.ValidatorIssuesTotal.WithLabelValues(severityLabel(issue.Severity)).Inc()
	}
	observability.ValidatorQualityScore.Observe(float64(report.QualityScore))

	return report
}

func severityLabel(s Severity) string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

func hasCritical(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// statusFor implements §4.8's final status rule: the worst severity present
// determines the report's overall status.
func statusFor(issues []Issue) Status {
	worst := SeverityInfo
	seen := false
	for _, i := range issues {
		seen = true
		if i.Severity > worst {
			worst = i.Severity
		}
	}
	if !seen {
		return StatusValid
	}
	switch worst {
	case SeverityCritical:
		return StatusCriticalError
	case SeverityError:
		return StatusError
	case SeverityWarning:
		return StatusWarning
	default:
		return StatusValid
	}
}

// scoreFor implements §4.8's quality score formula:
// max(0, 100 - 25*critical - 10*error - 5*warning - 1*info).
func scoreFor(issues []Issue) int {
	score := 100
	for _, i := range issues {
		switch i.Severity {
		case SeverityCritical:
			score -= 25
		case SeverityError:
			score -= 10
		case SeverityWarning:
			score -= 5
		case SeverityInfo:
			score -= 1
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func newIssue(code string, sev Severity, loc rules.SourceLocation, format string, args ...interface{}) Issue {
	return Issue{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...), Location: loc}
}
