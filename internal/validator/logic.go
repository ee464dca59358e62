package validator

import (
	"github.com/shopspring/decimal"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

// runLogicPass reports LOGIC_### findings: tautologies, contradictions,
// an always-false guard's unreachable then-branch, and declared outputs
// that are never assigned by any branch (§4.8).
func runLogicPass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if dsl == nil {
		return nil
	}
	var issues []Issue

	col := collect(dsl)

	for _, cond := range col.conditions {
		cmp, ok := cond.(*rules.ComparisonCondition)
		if !ok || cmp.Right == nil {
			continue
		}
		if cmp.Left.String() == cmp.Right.String() {
			switch cmp.Op {
			case rules.CmpEquals, rules.CmpAtLeast, rules.CmpAtMost:
				issues = append(issues, newIssue("LOGIC_001", SeverityWarning, cmp.Location(),
					"%s is always true", cmp))
			case rules.CmpNotEquals:
				issues = append(issues, newIssue("LOGIC_002", SeverityWarning, cmp.Location(),
					"%s is always false", cmp))
			}
		}
	}

	for _, group := range col.conditionGroups {
		if found := contradictionIn(group); found != "" {
			issues = append(issues, newIssue("LOGIC_003", SeverityError, rules.SentinelLocation,
				"condition group can never be satisfied: %s", found))
		}
	}

	for _, cond := range col.conditions {
		if cond == nil {
			continue
		}
		if ca, ok := asAlwaysConstant(cond); ok && !ca {
			issues = append(issues, newIssue("LOGIC_004", SeverityWarning, cond.Location(),
				"branch guarded by an always-false condition is unreachable"))
		}
	}

	if dsl.Output != nil {
		assigned := map[string]bool{}
		for _, w := range col.writes {
			assigned[w.name] = true
		}
		for name := range dsl.Output {
			if name == "conditionResult" {
				continue
			}
			if !assigned[name] {
				issues = append(issues, newIssue("LOGIC_005", SeverityWarning, rules.SentinelLocation,
					"declared output %q is never assigned by any branch", name))
			}
		}
	}

	return issues
}

// asAlwaysConstant reports whether cond is a bare boolean literal
// (`- "true"`/`- "false"`), and its value.
func asAlwaysConstant(cond rules.Condition) (bool, bool) {
	ec, ok := cond.(*rules.ExpressionCondition)
	if !ok {
		return false, false
	}
	lit, ok := ec.Expression.(*rules.LiteralExpr)
	if !ok {
		return false, false
	}
	b, ok := lit.Value.(bool)
	return b, ok
}

// contradictionIn looks for two comparisons in the same AND group on the
// same variable whose numeric ranges cannot both hold, e.g.
// "x greater_than 10" and "x less_than 5" (§4.8 example).
func contradictionIn(group []rules.Condition) string {
	type bound struct {
		lowerExclusive, lowerInclusive *decimal.Decimal
		upperExclusive, upperInclusive *decimal.Decimal
		desc                           []string
	}
	bounds := map[string]*bound{}

	for _, cond := range group {
		cmp, ok := cond.(*rules.ComparisonCondition)
		if !ok || cmp.Right == nil {
			continue
		}
		varName := cmp.Left.String()
		lit, ok := cmp.Right.(*rules.LiteralExpr)
		if !ok {
			continue
		}
		val, ok := lit.Value.(decimal.Decimal)
		if !ok {
			continue
		}
		b, ok := bounds[varName]
		if !ok {
			b = &bound{}
			bounds[varName] = b
		}
		v := val
		switch cmp.Op {
		case rules.CmpGreaterThan:
			b.lowerExclusive = &v
		case rules.CmpAtLeast:
			b.lowerInclusive = &v
		case rules.CmpLessThan:
			b.upperExclusive = &v
		case rules.CmpAtMost:
			b.upperInclusive = &v
		default:
			continue
		}
		b.desc = append(b.desc, cmp.String())
	}

	for name, b := range bounds {
		lower, lowerOk := pickBound(b.lowerExclusive, b.lowerInclusive, true)
		upper, upperOk := pickBound(b.upperExclusive, b.upperInclusive, false)
		if !lowerOk || !upperOk {
			continue
		}
		if lower.GreaterThan(upper) || (lower.Equal(upper) && (b.lowerExclusive != nil || b.upperExclusive != nil)) {
			return name
		}
	}
	return ""
}

func pickBound(exclusive, inclusive *decimal.Decimal, isLower bool) (decimal.Decimal, bool) {
	if exclusive != nil {
		return *exclusive, true
	}
	if inclusive != nil {
		return *inclusive, true
	}
	return decimal.Zero, false
}
