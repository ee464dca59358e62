package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition_ComparisonOperators(t *testing.T) {
	cond, err := ParseCondition("creditScore at_least 650")
	require.NoError(t, err)

	cmp, ok := cond.(*ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, CmpAtLeast, cmp.Op)

	variable, ok := cmp.Left.(*VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "creditScore", variable.Name)
}

func TestParseCondition_Between(t *testing.T) {
	cond, err := ParseCondition("age between 18 and 65")
	require.NoError(t, err)

	cmp, ok := cond.(*ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, CmpBetween, cmp.Op)
	assert.NotNil(t, cmp.Right)
	assert.NotNil(t, cmp.RangeEnd)
}

func TestParseCondition_BetweenMissingAndIsAnError(t *testing.T) {
	_, err := ParseCondition("age between 18 65")
	require.Error(t, err)
	codedErr := err.(*CodedError)
	assert.Equal(t, ErrParseBetweenMissingAnd, codedErr.Code)
}

func TestParseCondition_UnaryValidator(t *testing.T) {
	cond, err := ParseCondition("email is_email")
	require.NoError(t, err)

	cmp, ok := cond.(*ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, CmpIsEmail, cmp.Op)
	assert.Nil(t, cmp.Right)
}

func TestParseCondition_LogicalAndOrNotPrecedence(t *testing.T) {
	cond, err := ParseCondition("a is_positive and b is_positive or not c is_positive")
	require.NoError(t, err)

	or, ok := cond.(*LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, LogOr, or.Op)
	require.Len(t, or.Operands, 2)

	and, ok := or.Operands[0].(*LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, LogAnd, and.Op)

	not, ok := or.Operands[1].(*LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, LogNot, not.Op)
}

func TestParseCondition_ParenthesizedGroup(t *testing.T) {
	cond, err := ParseCondition("(a is_positive or b is_positive) and c is_positive")
	require.NoError(t, err)

	and, ok := cond.(*LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, LogAnd, and.Op)
	_, ok = and.Operands[0].(*LogicalCondition)
	assert.True(t, ok)
}

func TestParseExpr_ArithmeticPrecedence(t *testing.T) {
	expr, err := ParseExpr("2 + 3 * 4")
	require.NoError(t, err)

	bin, ok := expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BinAdd, bin.Op)

	right, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BinMul, right.Op)
}

func TestParseExpr_PropertyPathAndIndex(t *testing.T) {
	expr, err := ParseExpr("customer.address[0]")
	require.NoError(t, err)

	variable, ok := expr.(*VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "customer", variable.Name)
	assert.Equal(t, []string{"address"}, variable.PropertyPath)
	require.NotNil(t, variable.Index)
}

func TestParseActionBody_Assignment(t *testing.T) {
	actions, err := ParseActionBody(`set decision to "APPROVED"`)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	assign, ok := actions[0].(*AssignmentAction)
	require.True(t, ok)
	assert.Equal(t, "decision", assign.Target)
}

func TestParseActionBody_MultipleSemicolonSeparated(t *testing.T) {
	actions, err := ParseActionBody(`set a to 1; set b to 2`)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestParseActionBody_ArithmeticAdd(t *testing.T) {
	actions, err := ParseActionBody("add 10 to total")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	arith, ok := actions[0].(*ArithmeticAction)
	require.True(t, ok)
	assert.Equal(t, ArithAdd, arith.Op)
	assert.Equal(t, "total", arith.Target)
}

func TestParseActionBody_ArithmeticMultiplyBy(t *testing.T) {
	actions, err := ParseActionBody("multiply total by 2")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	arith, ok := actions[0].(*ArithmeticAction)
	require.True(t, ok)
	assert.Equal(t, ArithMultiply, arith.Op)
	assert.Equal(t, "total", arith.Target)
}

func TestParseActionBody_ForEach(t *testing.T) {
	actions, err := ParseActionBody("forEach item in items: add item to total")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	forEach, ok := actions[0].(*ForEachAction)
	require.True(t, ok)
	assert.Equal(t, "item", forEach.Var)
	require.Len(t, forEach.Body, 1)
}

func TestParseActionBody_ConditionalWithElse(t *testing.T) {
	actions, err := ParseActionBody(`if score at_least 700 then set tier to "gold" else set tier to "standard"`)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	cond, ok := actions[0].(*ConditionalAction)
	require.True(t, ok)
	require.NotNil(t, cond.Else)
}

func TestParseActionBody_FunctionCall(t *testing.T) {
	actions, err := ParseActionBody(`call round_to with [total, 2]`)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	call, ok := actions[0].(*FunctionCallAction)
	require.True(t, ok)
	assert.Equal(t, "round_to", call.Call.Name)
	assert.Len(t, call.Call.Args, 2)
}

func TestParseActionBody_UnknownActionKeyword(t *testing.T) {
	_, err := ParseActionBody("frobnicate x")
	require.Error(t, err)
	codedErr := err.(*CodedError)
	assert.Equal(t, ErrParseUnknownAction, codedErr.Code)
}

func TestParseExpr_TrailingGarbageIsAnError(t *testing.T) {
	_, err := ParseExpr("1 + 2 )")
	require.Error(t, err)
}
