package validator

import "github.com/fireflyframework/ruleenginectl/internal/rules"

const maxReasonableNameLength = 64

// runBestPracticesPass reports BP_### findings: missing description/version
// metadata, overly long names, and numeric literals used directly in a
// comparison where a declared constant would likely belong (§4.8).
func runBestPracticesPass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if dsl == nil {
		return nil
	}
	var issues []Issue

	if dsl.Description == "" {
		issues = append(issues, newIssue("BP_001", SeverityInfo, rules.SentinelLocation,
			"rule %q has no description", dsl.Name))
	}
	if dsl.Version == "" {
		issues = append(issues, newIssue("BP_002", SeverityInfo, rules.SentinelLocation,
			"rule %q has no version", dsl.Name))
	}
	if len(dsl.Name) > maxReasonableNameLength {
		issues = append(issues, newIssue("BP_003", SeverityInfo, rules.SentinelLocation,
			"rule name %q is unusually long (%d chars)", dsl.Name, len(dsl.Name)))
	}

	col := collect(dsl)
	for _, cond := range col.conditions {
		cmp, ok := cond.(*rules.ComparisonCondition)
		if !ok {
			continue
		}
		if isMagicNumberComparison(cmp) {
			issues = append(issues, newIssue("BP_004", SeverityInfo, cmp.Location(),
				"%s compares against a literal number; consider a declared constant instead", cmp))
		}
	}

	return issues
}

// isMagicNumberComparison flags a comparison between a Variable and a bare
// numeric literal on ops where business thresholds typically live
// (at_least/at_most/greater_than/less_than/between), excluding the common
// 0/1/100 sentinels that are rarely worth naming.
func isMagicNumberComparison(cmp *rules.ComparisonCondition) bool {
	switch cmp.Op {
	case rules.CmpAtLeast, rules.CmpAtMost, rules.CmpGreaterThan, rules.CmpLessThan,
		rules.CmpBetween, rules.CmpNotBetween:
	default:
		return false
	}
	if _, ok := cmp.Left.(*rules.VariableExpr); !ok {
		return false
	}
	lit, ok := cmp.Right.(*rules.LiteralExpr)
	if !ok {
		return false
	}
	if isCommonSentinel(lit.Value) {
		return false
	}
	return true
}

func isCommonSentinel(v interface{}) bool {
	type decimalLike interface {
		IntPart() int64
		IsInteger() bool
	}
	if d, ok := v.(decimalLike); ok && d.IsInteger() {
		switch d.IntPart() {
		case 0, 1, 100:
			return true
		}
	}
	return false
}
