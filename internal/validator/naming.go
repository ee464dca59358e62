package validator

import (
	"regexp"
	"strings"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

var (
	camelCasePattern     = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)
	snakeCasePattern     = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	upperSnakePattern    = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// reservedWords are the DSL's keyword lexemes (§4.2's token table); using
// one as a variable name would shadow the grammar and is always rejected,
// independent of casing.
var reservedWords = map[string]bool{
	"and": true, "or": true, "not": true,
	"equals": true, "not_equals": true, "greater_than": true, "less_than": true,
	"at_least": true, "at_most": true, "contains": true, "not_contains": true,
	"starts_with": true, "ends_with": true, "matches": true, "not_matches": true,
	"in_list": true, "not_in_list": true, "between": true, "not_between": true,
	"exists": true, "set": true, "to": true, "calculate": true, "as": true,
	"add": true, "subtract": true, "multiply": true, "divide": true,
	"from": true, "by": true, "call": true, "with": true, "if": true,
	"then": true, "else": true, "run": true, "foreach": true, "in": true,
	"while": true, "do": true, "append": true, "prepend": true, "remove": true,
	"circuit_breaker": true, "true": true, "false": true, "null": true,
}

// runNamingPass reports NAMING_### findings: inputs must be camelCase,
// computed variables snake_case, constants UPPER_SNAKE, and no name may
// collide with a reserved word (§4.8).
func runNamingPass(source string, dsl *rules.RulesDSL, parseErr error) []Issue {
	if dsl == nil {
		return nil
	}
	var issues []Issue

	for _, in := range dsl.Inputs {
		if reservedWords[strings.ToLower(in.Name)] {
			issues = append(issues, newIssue("NAMING_001", SeverityError, rules.SentinelLocation,
				"input %q collides with a reserved word", in.Name))
			continue
		}
		if !camelCasePattern.MatchString(in.Name) {
			issues = append(issues, newIssue("NAMING_002", SeverityError, rules.SentinelLocation,
				"input %q must be camelCase", in.Name))
		}
	}

	for _, c := range dsl.Constants {
		if !upperSnakePattern.MatchString(c.Code) {
			issues = append(issues, newIssue("NAMING_003", SeverityError, rules.SentinelLocation,
				"declared constant %q must be UPPER_SNAKE_CASE", c.Code))
		}
	}

	collected := collect(dsl)
	seenComputed := map[string]bool{}
	for _, w := range collected.writes {
		if upperSnakePattern.MatchString(w.name) {
			issues = append(issues, newIssue("NAMING_004", SeverityError, w.loc,
				"%q looks like a constant but is assigned a computed value; constants are read-only", w.name))
			continue
		}
		if seenComputed[w.name] {
			continue
		}
		seenComputed[w.name] = true
		if reservedWords[strings.ToLower(w.name)] {
			issues = append(issues, newIssue("NAMING_001", SeverityError, w.loc,
				"computed variable %q collides with a reserved word", w.name))
			continue
		}
		if !snakeCasePattern.MatchString(w.name) {
			issues = append(issues, newIssue("NAMING_005", SeverityWarning, w.loc,
				"computed variable %q should be snake_case", w.name))
		}
	}

	return issues
}
