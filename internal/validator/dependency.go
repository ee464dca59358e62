package validator

import "github.com/fireflyframework/ruleenginectl/internal/rules"

// runDependencyPass reports DEP_### findings: every variable read must be
// reachable from a declared input, a constant (declared or auto-detected
// UPPER_SNAKE reference), or some assignment elsewhere in the rule; no
// computed variable may depend on itself through a cycle of other computed
// variables; every declared input should be referenced at least once
// (warning, not an error — some inputs exist purely for caller
// documentation) (§4.8).
func runDependencyPass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if dsl == nil {
		return nil
	}
	var issues []Issue

	known := map[string]bool{}
	for _, in := range dsl.Inputs {
		known[in.Name] = true
	}
	for _, c := range dsl.Constants {
		known[c.Code] = true
	}

	col := collect(dsl)
	for _, w := range col.writes {
		known[w.name] = true
	}
	for _, r := range col.reads {
		if upperSnakePattern.MatchString(r.name) {
			known[r.name] = true // auto-discovered constant (§4.7 step 3)
		}
	}

	for _, r := range col.reads {
		if !known[r.name] {
			issues = append(issues, newIssue("DEP_001", SeverityError, r.loc,
				"%q is read but never supplied as an input, constant, or prior assignment", r.name))
		}
	}

	used := map[string]bool{}
	for _, r := range col.reads {
		used[r.name] = true
	}
	for _, in := range dsl.Inputs {
		if !used[in.Name] {
			issues = append(issues, newIssue("DEP_002", SeverityWarning, rules.SentinelLocation,
				"declared input %q is never referenced", in.Name))
		}
	}

	if cyc := findCycle(dependencyEdges(dsl)); cyc != "" {
		issues = append(issues, newIssue("DEP_003", SeverityError, rules.SentinelLocation,
			"circular computed-variable dependency involving %q", cyc))
	}

	return issues
}

// dependencyEdges builds a dependency graph restricted to top-level
// set/calculate/run assignments: target -> the computed names its RHS
// reads. Loop/conditional bodies are intentionally excluded — a forEach
// accumulator reading its own prior value is the documented accumulation
// idiom (§8 scenario 3), not a cycle.
func dependencyEdges(dsl *rules.RulesDSL) map[string][]string {
	edges := map[string][]string{}
	addFrom := func(actions []rules.Action) {
		for _, a := range actions {
			var target string
			var value rules.Expr
			switch n := a.(type) {
			case *rules.AssignmentAction:
				target, value = n.Target, n.Value
			case *rules.CalculateAction:
				target, value = n.Target, n.Value
			case *rules.RunAction:
				target, value = n.Target, n.Value
			default:
				continue
			}
			sub := newCollected()
			sub.walkExpr(value)
			for _, r := range sub.reads {
				if r.name != target {
					edges[target] = append(edges[target], r.name)
				}
			}
		}
	}

	switch dsl.Shape {
	case rules.ShapeSimple:
		addFrom(dsl.Simple.Then)
		addFrom(dsl.Simple.Else)
	case rules.ShapeSequence:
		for _, sub := range dsl.Sequence.Rules {
			if sub.Simple != nil {
				addFrom(sub.Simple.Then)
				addFrom(sub.Simple.Else)
			}
		}
	case rules.ShapeConditional:
		addFrom(dsl.Cond.Then.Actions)
		if dsl.Cond.Else != nil {
			addFrom(dsl.Cond.Else.Actions)
		}
	}
	return edges
}

func findCycle(edges map[string][]string) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var dfs func(n string) string
	dfs = func(n string) string {
		color[n] = gray
		for _, next := range edges[n] {
			switch color[next] {
			case gray:
				return next
			case white:
				if found := dfs(next); found != "" {
					return found
				}
			}
		}
		color[n] = black
		return ""
	}
	for n := range edges {
		if color[n] == white {
			if found := dfs(n); found != "" {
				return found
			}
		}
	}
	return ""
}
