// Package yamlrule assembles a parsed YAML rule document into a
// rules.RulesDSL. It owns the one dependency the lexer/parser/evaluator
// packages must not carry: gopkg.in/yaml.v3. Structural checks run before
// any node is interpreted, matching the teacher's fail-fast validation
// idiom from its request-body decoding handlers (internal/api).
package yamlrule

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

// Unknown top-level fields are reported as warnings by the validator's
// syntax pass (internal/validator/syntax.go), which owns the recognised
// field set; the assembler only enforces the structural invariants it
// needs in order to build a RulesDSL.

var namePattern = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
var inputNamePattern = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)

// Parse turns raw YAML rule source into a rules.RulesDSL. It matches the
// rules.ParseFunc signature so it can be wired straight into
// rules.NewEngine.
func Parse(source string) (*rules.RulesDSL, error) {
	if err := checkStructure(source); err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(source), &root); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnbalanced, "invalid YAML: "+err.Error())
	}
	if len(root.Content) == 0 {
		return nil, structuralErr(rules.ErrStructuralUnbalanced, "empty document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, structuralErr(rules.ErrStructuralUnbalanced, "top-level document must be a mapping")
	}

	fields := mappingFields(doc)

	dsl := &rules.RulesDSL{Source: source}

	if nameNode, ok := fields["name"]; ok {
		dsl.Name = nameNode.Value
	}
	if dsl.Name == "" {
		return nil, structuralErr(rules.ErrStructuralInvalidName, "name is required")
	}
	if len(dsl.Name) > 255 || !namePattern.MatchString(dsl.Name) {
		return nil, structuralErr(rules.ErrStructuralInvalidName, "name must be <=255 chars of letters, digits, spaces, '_' or '-'")
	}

	if n, ok := fields["description"]; ok {
		dsl.Description = n.Value
	}
	if n, ok := fields["version"]; ok {
		dsl.Version = n.Value
	}

	if n, ok := fields["inputs"]; ok {
		inputs, err := parseInputs(n)
		if err != nil {
			return nil, err
		}
		dsl.Inputs = inputs
	}
	if n, ok := fields["constants"]; ok {
		constants, err := parseConstants(n)
		if err != nil {
			return nil, err
		}
		dsl.Constants = constants
	}
	if n, ok := fields["output"]; ok {
		output, err := parseOutput(n)
		if err != nil {
			return nil, err
		}
		dsl.Output = output
	}
	if n, ok := fields["circuit_breaker"]; ok {
		enabled, msg, err := parseCircuitBreaker(n)
		if err != nil {
			return nil, err
		}
		dsl.CircuitBreakerEnabled = enabled
		dsl.CircuitBreakerMessage = msg
	}

	switch {
	case fields["rules"] != nil:
		seq, err := parseSequence(fields["rules"])
		if err != nil {
			return nil, err
		}
		dsl.Shape = rules.ShapeSequence
		dsl.Sequence = seq
	case fields["conditions"] != nil:
		cond, err := parseConditionalShape(fields["conditions"])
		if err != nil {
			return nil, err
		}
		dsl.Shape = rules.ShapeConditional
		dsl.Cond = cond
	default:
		simple, err := parseSimpleShape(fields)
		if err != nil {
			return nil, err
		}
		dsl.Shape = rules.ShapeSimple
		dsl.Simple = simple
	}

	return dsl, nil
}

// checkStructure rejects tab-indented source and unbalanced brackets before
// any YAML parsing is attempted (§4.3).
func checkStructure(source string) error {
	for i, line := range strings.Split(source, "\n") {
		for _, r := range line {
			if r == ' ' {
				continue
			}
			if r == '\t' {
				return structuralErr(rules.ErrStructuralTabIndent, fmt.Sprintf("tab character used for indentation on line %d", i+1))
			}
			break
		}
	}

	depth := 0
	inSingle, inDouble := false, false
	for _, r := range source {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		}
	}
	if depth != 0 {
		return structuralErr(rules.ErrStructuralUnbalanced, "unbalanced [] or {} in source")
	}
	if inSingle || inDouble {
		return structuralErr(rules.ErrStructuralUnbalanced, "unbalanced quotes in source")
	}
	return nil
}

func structuralErr(code, msg string) error {
	return &rules.CodedError{Code: code, Message: msg}
}

// mappingFields flattens a yaml.v3 MappingNode's key/value pairs keyed by
// the scalar key name. Unrecognised keys are reported by the caller, not
// here, since only the top-level mapping enforces a fixed field set.
func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		out[key.Value] = val
	}
	return out
}

func parseInputs(node *yaml.Node) ([]rules.InputDecl, error) {
	var names []string
	if err := node.Decode(&names); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "inputs must be a list of strings: "+err.Error())
	}
	seen := map[string]bool{}
	decls := make([]rules.InputDecl, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		if !inputNamePattern.MatchString(n) {
			return nil, structuralErr(rules.ErrStructuralUnknownField, "input '"+n+"' must be camelCase")
		}
		seen[n] = true
		decls = append(decls, rules.InputDecl{Name: n})
	}
	return decls, nil
}

type yamlConstant struct {
	Code         string      `yaml:"code"`
	DefaultValue interface{} `yaml:"defaultValue"`
}

func parseConstants(node *yaml.Node) ([]rules.ConstantDecl, error) {
	var raw []yaml.Node
	if err := node.Decode(&raw); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "constants must be a list: "+err.Error())
	}
	decls := make([]rules.ConstantDecl, 0, len(raw))
	for _, item := range raw {
		var c yamlConstant
		hasDefault := false
		fields := mappingFields(&item)
		if _, ok := fields["defaultValue"]; ok {
			hasDefault = true
		}
		if err := item.Decode(&c); err != nil {
			return nil, structuralErr(rules.ErrStructuralUnknownField, "invalid constant entry: "+err.Error())
		}
		decls = append(decls, rules.ConstantDecl{Code: c.Code, DefaultValue: c.DefaultValue, HasDefault: hasDefault})
	}
	return decls, nil
}

func parseOutput(node *yaml.Node) (map[string]rules.OutputType, error) {
	raw := map[string]string{}
	if err := node.Decode(&raw); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "output must be a map of name->type: "+err.Error())
	}
	out := map[string]rules.OutputType{}
	for k, v := range raw {
		out[k] = rules.OutputType(v)
	}
	return out, nil
}

func parseCircuitBreaker(node *yaml.Node) (bool, string, error) {
	var cb struct {
		Enabled bool   `yaml:"enabled"`
		Message string `yaml:"message"`
	}
	if err := node.Decode(&cb); err != nil {
		return false, "", structuralErr(rules.ErrStructuralUnknownField, "invalid circuit_breaker block: "+err.Error())
	}
	return cb.Enabled, cb.Message, nil
}

func parseSimpleShape(fields map[string]*yaml.Node) (*rules.SimpleShape, error) {
	when, err := parseConditionStrings(fields["when"])
	if err != nil {
		return nil, err
	}
	then, err := parseActionStrings(fields["then"])
	if err != nil {
		return nil, err
	}
	els, err := parseActionStrings(fields["else"])
	if err != nil {
		return nil, err
	}
	if len(when) == 0 && len(then) == 0 {
		return nil, structuralErr(rules.ErrStructuralMissingThen, "rule has no when/then/else/conditions/rules content")
	}
	if len(when) > 0 && len(then) == 0 {
		return nil, structuralErr(rules.ErrStructuralMissingThen, "'when' given without 'then'")
	}
	return &rules.SimpleShape{When: when, Then: then, Else: els}, nil
}

func parseConditionStrings(node *yaml.Node) ([]rules.Condition, error) {
	if node == nil {
		return nil, nil
	}
	var raw []string
	if err := node.Decode(&raw); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "expected a list of condition strings: "+err.Error())
	}
	out := make([]rules.Condition, 0, len(raw))
	for _, s := range raw {
		cond, err := rules.ParseCondition(s)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func parseActionStrings(node *yaml.Node) ([]rules.Action, error) {
	if node == nil {
		return nil, nil
	}
	var raw []string
	if err := node.Decode(&raw); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "expected a list of action strings: "+err.Error())
	}
	out := make([]rules.Action, 0, len(raw))
	for _, s := range raw {
		actions, err := rules.ParseActionBody(s)
		if err != nil {
			return nil, err
		}
		out = append(out, actions...)
	}
	return out, nil
}

func parseSequence(node *yaml.Node) (*rules.SequenceShape, error) {
	var raw []yaml.Node
	if err := node.Decode(&raw); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "rules must be a list: "+err.Error())
	}
	subs := make([]rules.SubRule, 0, len(raw))
	for _, item := range raw {
		fields := mappingFields(&item)
		name := ""
		if n, ok := fields["name"]; ok {
			name = n.Value
		}

		sub := rules.SubRule{Name: name}
		if fields["when"] != nil || fields["then"] != nil || fields["else"] != nil {
			if fields["conditions"] != nil {
				// when/then/else wins over conditions; conditions is
				// ignored and no warning is emitted.
			}
			simple, err := parseSimpleShape(fields)
			if err != nil {
				return nil, err
			}
			sub.Shape = rules.ShapeSimple
			sub.Simple = simple
		} else if fields["conditions"] != nil {
			cond, err := parseConditionalShape(fields["conditions"])
			if err != nil {
				return nil, err
			}
			sub.Shape = rules.ShapeConditional
			sub.Cond = cond
		} else {
			return nil, structuralErr(rules.ErrStructuralMissingThen, "sequence entry '"+name+"' has no when/then or conditions")
		}
		subs = append(subs, sub)
	}
	return &rules.SequenceShape{Rules: subs}, nil
}

func parseConditionalShape(node *yaml.Node) (*rules.ConditionalShape, error) {
	fields := mappingFields(node)
	ifNode, ok := fields["if"]
	if !ok {
		return nil, structuralErr(rules.ErrStructuralMissingThen, "'conditions' block requires 'if'")
	}
	cond, err := buildStructuredCondition(ifNode)
	if err != nil {
		return nil, err
	}

	thenNode, ok := fields["then"]
	if !ok {
		return nil, structuralErr(rules.ErrStructuralMissingThen, "'conditions' block requires 'then'")
	}
	thenBlock, err := buildActionBlock(thenNode)
	if err != nil {
		return nil, err
	}

	var elseBlock *rules.ActionBlock
	if elseNode, ok := fields["else"]; ok {
		b, err := buildActionBlock(elseNode)
		if err != nil {
			return nil, err
		}
		elseBlock = &b
	}

	return &rules.ConditionalShape{If: cond, Then: thenBlock, Else: elseBlock}, nil
}

func buildActionBlock(node *yaml.Node) (rules.ActionBlock, error) {
	fields := mappingFields(node)
	actions, err := parseActionStrings(fields["actions"])
	if err != nil {
		return rules.ActionBlock{}, err
	}
	block := rules.ActionBlock{Actions: actions}
	if nestedNode, ok := fields["nested"]; ok {
		nested, err := parseConditionalShape(nestedNode)
		if err != nil {
			return rules.ActionBlock{}, err
		}
		block.Nested = &rules.ConditionalAction{Cond: nested.If, Then: nested.Then, Else: nested.Else}
	}
	return block, nil
}

// structuredComparator maps operator aliases to rules.ComparisonOp (§4.3).
var structuredComparator = map[string]rules.ComparisonOp{
	"equals": rules.CmpEquals, "==": rules.CmpEquals,
	"not_equals": rules.CmpNotEquals, "!=": rules.CmpNotEquals,
	"greater_than": rules.CmpGreaterThan, ">": rules.CmpGreaterThan,
	"less_than": rules.CmpLessThan, "<": rules.CmpLessThan,
	"at_least": rules.CmpAtLeast, ">=": rules.CmpAtLeast,
	"at_most": rules.CmpAtMost, "<=": rules.CmpAtMost,
	"contains": rules.CmpContains, "not_contains": rules.CmpNotContains,
	"starts_with": rules.CmpStartsWith, "ends_with": rules.CmpEndsWith,
	"matches": rules.CmpMatches, "not_matches": rules.CmpNotMatches,
	"in_list": rules.CmpInList, "not_in_list": rules.CmpNotInList,
	"between": rules.CmpBetween, "not_between": rules.CmpNotBetween,
}

// buildStructuredCondition builds a Condition from a structured YAML
// compare/and/or/not block (§4.3).
func buildStructuredCondition(node *yaml.Node) (rules.Condition, error) {
	fields := mappingFields(node)

	if n, ok := fields["and"]; ok {
		ops, err := buildStructuredConditionList(n)
		if err != nil {
			return nil, err
		}
		return &rules.LogicalCondition{Op: rules.LogAnd, Operands: ops}, nil
	}
	if n, ok := fields["or"]; ok {
		ops, err := buildStructuredConditionList(n)
		if err != nil {
			return nil, err
		}
		return &rules.LogicalCondition{Op: rules.LogOr, Operands: ops}, nil
	}
	if n, ok := fields["not"]; ok {
		inner, err := buildStructuredCondition(n)
		if err != nil {
			return nil, err
		}
		return &rules.LogicalCondition{Op: rules.LogNot, Operands: []rules.Condition{inner}}, nil
	}
	if n, ok := fields["compare"]; ok {
		return buildCompare(n)
	}
	return nil, structuralErr(rules.ErrStructuralUnknownField, "'conditions.if' must contain compare/and/or/not")
}

func buildStructuredConditionList(node *yaml.Node) ([]rules.Condition, error) {
	var items []yaml.Node
	if err := node.Decode(&items); err != nil {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "and/or must be a list: "+err.Error())
	}
	out := make([]rules.Condition, 0, len(items))
	for _, item := range items {
		cond, err := buildStructuredCondition(&item)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func buildCompare(node *yaml.Node) (rules.Condition, error) {
	fields := mappingFields(node)
	leftNode, ok := fields["left"]
	if !ok {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "'compare' requires 'left'")
	}
	opNode, ok := fields["operator"]
	if !ok {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "'compare' requires 'operator'")
	}

	left, err := rules.ParseExpr(leftNode.Value)
	if err != nil {
		return nil, err
	}
	op, ok := structuredComparator[opNode.Value]
	if !ok {
		return nil, structuralErr(rules.ErrStructuralUnknownField, "unknown compare operator: "+opNode.Value)
	}

	cond := &rules.ComparisonCondition{Left: left, Op: op}
	if rightNode, ok := fields["right"]; ok {
		right, err := rules.ParseExpr(rightNode.Value)
		if err != nil {
			return nil, err
		}
		cond.Right = right
	}
	if op == rules.CmpBetween || op == rules.CmpNotBetween {
		rangeEndNode, ok := fields["rangeEnd"]
		if !ok {
			return nil, structuralErr(rules.ErrStructuralUnknownField, "'between' compare requires 'rangeEnd'")
		}
		rangeEnd, err := rules.ParseExpr(rangeEndNode.Value)
		if err != nil {
			return nil, err
		}
		cond.RangeEnd = rangeEnd
	}
	return cond, nil
}
