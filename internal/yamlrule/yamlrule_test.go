package yamlrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireflyframework/ruleenginectl/internal/rules"
)

func TestParse_SimpleShape(t *testing.T) {
	dsl, err := Parse(`
name: Basic Approval
inputs: [creditScore, annualIncome]
when:
  - creditScore at_least 650
then:
  - set decision to "APPROVED"
else:
  - set decision to "DECLINED"
`)
	require.NoError(t, err)
	assert.Equal(t, rules.ShapeSimple, dsl.Shape)
	require.NotNil(t, dsl.Simple)
	assert.Len(t, dsl.Simple.When, 1)
	assert.Len(t, dsl.Simple.Then, 1)
	assert.Len(t, dsl.Simple.Else, 1)
	require.Len(t, dsl.Inputs, 2)
	assert.Equal(t, "creditScore", dsl.Inputs[0].Name)
}

func TestParse_MissingNameIsAnError(t *testing.T) {
	_, err := Parse(`
when:
  - a at_least 1
then:
  - set b to 1
`)
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralInvalidName, codedErr.Code)
}

func TestParse_WhenWithoutThenIsAnError(t *testing.T) {
	_, err := Parse(`
name: Incomplete
when:
  - a at_least 1
`)
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralMissingThen, codedErr.Code)
}

func TestParse_TabIndentIsRejected(t *testing.T) {
	_, err := Parse("name: Bad\nthen:\n\t- set a to 1\n")
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralTabIndent, codedErr.Code)
}

func TestParse_UnbalancedBracketIsRejected(t *testing.T) {
	_, err := Parse(`
name: Bad
then:
  - "call f with [1, 2"
`)
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralUnbalanced, codedErr.Code)
}

func TestParse_ConstantsWithAndWithoutDefault(t *testing.T) {
	dsl, err := Parse(`
name: Age Window
inputs: [age]
constants:
  - code: MIN_AGE
  - code: MAX_AGE
    defaultValue: 65
when:
  - age between MIN_AGE and MAX_AGE
then:
  - set eligible to true
`)
	require.NoError(t, err)
	require.Len(t, dsl.Constants, 2)
	assert.Equal(t, "MIN_AGE", dsl.Constants[0].Code)
	assert.False(t, dsl.Constants[0].HasDefault)
	assert.Equal(t, "MAX_AGE", dsl.Constants[1].Code)
	assert.True(t, dsl.Constants[1].HasDefault)
	assert.Equal(t, 65, dsl.Constants[1].DefaultValue)
}

func TestParse_CircuitBreakerBlock(t *testing.T) {
	dsl, err := Parse(`
name: Risk Gate
circuit_breaker:
  enabled: true
  message: risk_too_high
then:
  - set a to 1
`)
	require.NoError(t, err)
	assert.True(t, dsl.CircuitBreakerEnabled)
	assert.Equal(t, "risk_too_high", dsl.CircuitBreakerMessage)
}

func TestParse_OutputDeclarations(t *testing.T) {
	dsl, err := Parse(`
name: With Output
output:
  decision: string
  score: number
then:
  - set decision to "APPROVED"
`)
	require.NoError(t, err)
	require.Len(t, dsl.Output, 2)
	assert.Equal(t, rules.OutputType("string"), dsl.Output["decision"])
	assert.Equal(t, rules.OutputType("number"), dsl.Output["score"])
}

func TestParse_SequenceShape(t *testing.T) {
	dsl, err := Parse(`
name: Multi Stage
rules:
  - name: stage one
    when:
      - a at_least 1
    then:
      - set passedOne to true
  - name: stage two
    conditions:
      if:
        compare:
          left: b
          operator: equals
          right: 2
      then:
        actions:
          - "set passedTwo to true"
`)
	require.NoError(t, err)
	assert.Equal(t, rules.ShapeSequence, dsl.Shape)
	require.Len(t, dsl.Sequence.Rules, 2)
	assert.Equal(t, rules.ShapeSimple, dsl.Sequence.Rules[0].Shape)
	assert.Equal(t, rules.ShapeConditional, dsl.Sequence.Rules[1].Shape)
}

func TestParse_SequenceWhenThenWinsOverConditions(t *testing.T) {
	dsl, err := Parse(`
name: Ambiguous
rules:
  - name: both given
    when:
      - a at_least 1
    then:
      - set x to 1
    conditions:
      if:
        compare:
          left: b
          operator: equals
          right: 2
      then:
        actions:
          - "set y to 1"
`)
	require.NoError(t, err)
	require.Len(t, dsl.Sequence.Rules, 1)
	sub := dsl.Sequence.Rules[0]
	assert.Equal(t, rules.ShapeSimple, sub.Shape)
	require.NotNil(t, sub.Simple)
	assert.Nil(t, sub.Cond)
}

func TestParse_StructuredConditionalShape(t *testing.T) {
	dsl, err := Parse(`
name: Structured
conditions:
  if:
    and:
      - compare:
          left: a
          operator: at_least
          right: 1
      - compare:
          left: b
          operator: between
          right: 1
          rangeEnd: 10
  then:
    actions:
      - "set ok to true"
  else:
    actions:
      - "set ok to false"
`)
	require.NoError(t, err)
	assert.Equal(t, rules.ShapeConditional, dsl.Shape)
	require.NotNil(t, dsl.Cond)
	logical, ok := dsl.Cond.If.(*rules.LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, rules.LogAnd, logical.Op)
	require.Len(t, logical.Operands, 2)
	require.NotNil(t, dsl.Cond.Else)
}

func TestParse_StructuredConditionMissingRangeEndIsAnError(t *testing.T) {
	_, err := Parse(`
name: Bad Between
conditions:
  if:
    compare:
      left: a
      operator: between
      right: 1
  then:
    actions:
      - "set ok to true"
`)
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralUnknownField, codedErr.Code)
}

func TestParse_InputNameMustBeCamelCase(t *testing.T) {
	_, err := Parse(`
name: Bad Input
inputs: [Credit_Score]
then:
  - set a to 1
`)
	require.Error(t, err)
	codedErr, ok := err.(*rules.CodedError)
	require.True(t, ok)
	assert.Equal(t, rules.ErrStructuralUnknownField, codedErr.Code)
}

func TestParse_NestedConditionalInActionBlock(t *testing.T) {
	dsl, err := Parse(`
name: Nested
conditions:
  if:
    compare:
      left: a
      operator: at_least
      right: 1
  then:
    actions:
      - "set x to 1"
    nested:
      if:
        compare:
          left: b
          operator: at_least
          right: 2
      then:
        actions:
          - "set y to 2"
`)
	require.NoError(t, err)
	require.NotNil(t, dsl.Cond.Then.Nested)
	assert.Equal(t, "y", dsl.Cond.Then.Nested.Then.Actions[0].(*rules.AssignmentAction).Target)
}
