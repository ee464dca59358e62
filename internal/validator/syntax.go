package validator

import (
	"gopkg.in/yaml.v3"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

var recognizedTopLevelFields = map[string]bool{
	"name": true, "description": true, "version": true, "metadata": true,
	"inputs": true, "constants": true, "when": true, "then": true, "else": true,
	"conditions": true, "rules": true, "output": true, "circuit_breaker": true,
}

// runSyntaxPass reports SYNTAX_### findings. A non-nil parseErr (the
// assembler already rejected the source) is surfaced as a single CRITICAL
// issue and aborts the remaining passes (§4.8). Otherwise this pass
// independently re-scans the raw YAML for softer issues: unrecognised
// fields, which the assembler ignores, and a `when` without a `then`,
// which the assembler rejects but a report built from another parser's
// result should still list.
func runSyntaxPass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if parseErr != nil {
		code := "SYNTAX_001"
		if coded, ok := parseErr.(*rules.CodedError); ok {
			code = coded.Code
		}
		return []Issue{newIssue(code, SeverityCritical, rules.SentinelLocation,
			"rule source failed to parse: %s", parseErr.Error())}
	}

	var issues []Issue

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(source), &root); err != nil || len(root.Content) == 0 {
		return issues
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return issues
	}

	hasWhen, hasThen := false, false
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if !recognizedTopLevelFields[key.Value] {
			issues = append(issues, newIssue("SYNTAX_002", SeverityWarning,
				locOf(key), "unrecognised top-level field %q", key.Value))
		}
		switch key.Value {
		case "when":
			hasWhen = true
		case "then":
			hasThen = true
		}
	}
	if hasWhen && !hasThen {
		issues = append(issues, newIssue("SYNTAX_003", SeverityError,
			locOf(doc), "rule has a 'when' clause but no 'then' actions"))
	}

	return issues
}

func locOf(n *yaml.Node) rules.SourceLocation {
	return rules.SourceLocation{Line: n.Line, Column: n.Column}
}
