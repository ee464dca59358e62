package validator

import "github.com/fireflyframework/ruleenginectl/internal/rules"

const (
	maxConditionCount = 20
	maxActionCount    = 50
)

// runPerformancePass reports PERF_### findings: oversized condition/action
// counts, expensive operations (REST calls, function calls) ordered before
// cheap comparisons in an AND group where short-circuiting would otherwise
// skip them, and identical sub-expressions repeated across the rule
// (§4.8).
func runPerformancePass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if dsl == nil {
		return nil
	}
	var issues []Issue

	col := collect(dsl)

	if col.conditionCount > maxConditionCount {
		issues = append(issues, newIssue("PERF_001", SeverityWarning, rules.SentinelLocation,
			"rule has %d conditions, exceeding the recommended %d", col.conditionCount, maxConditionCount))
	}
	if col.actionCount > maxActionCount {
		issues = append(issues, newIssue("PERF_002", SeverityWarning, rules.SentinelLocation,
			"rule has %d actions, exceeding the recommended %d", col.actionCount, maxActionCount))
	}

	for _, group := range col.conditionGroups {
		for i, cond := range group {
			if i == len(group)-1 {
				continue
			}
			if isExpensiveCondition(cond) && !isExpensiveCondition(group[i+1]) {
				issues = append(issues, newIssue("PERF_003", SeverityInfo, cond.Location(),
					"expensive condition %s is evaluated before a cheaper one in the same AND group; reordering lets short-circuiting skip it more often", cond))
			}
		}
	}

	for expr, count := range col.exprStrings {
		if count > 2 && len(expr) > 3 {
			issues = append(issues, newIssue("PERF_004", SeverityInfo, rules.SentinelLocation,
				"sub-expression %q is repeated %d times; consider computing it once", expr, count))
		}
	}

	return issues
}

func isExpensiveCondition(cond rules.Condition) bool {
	cmp, ok := cond.(*rules.ComparisonCondition)
	if !ok {
		return false
	}
	return containsExpensiveExpr(cmp.Left) || containsExpensiveExpr(cmp.Right)
}

func containsExpensiveExpr(e rules.Expr) bool {
	switch n := e.(type) {
	case *rules.RestCallExpr:
		return true
	case *rules.JSONPathExpr:
		return true
	case *rules.FunctionCallExpr:
		return true
	case *rules.UnaryExpr:
		return containsExpensiveExpr(n.Operand)
	case *rules.BinaryExpr:
		return containsExpensiveExpr(n.Left) || containsExpensiveExpr(n.Right)
	default:
		return false
	}
}
