package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fireflyframework/ruleenginectl/internal/restbridge"
)

// DefaultDecimalScale is the rounding scale used when the engine config does
// not override it (§4.5, Open Question (a)).
const DefaultDecimalScale = 10

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
var ssnPattern = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)

// Evaluator walks Expr/Condition ASTs against an EvaluationContext. It is a
// type-switch fold (no visitor interface), matching the teacher's eval()
// dispatch shape in the superseded trace evaluator, generalised from one
// span-shaped object to three scoped variable lookups and arbitrary-
// precision arithmetic.
type Evaluator struct {
	Scale    int32
	Warnings []string

	// GoCtx carries the caller's deadline (§5 "Cancellation & timeouts").
	// REST calls use it directly; loop bodies poll it each iteration.
	// Defaults to context.Background() when never set.
	GoCtx context.Context

	restClient *restbridge.Client
}

// NewEvaluator builds an Evaluator at the configured decimal scale.
func NewEvaluator(scale int32) *Evaluator {
	if scale <= 0 {
		scale = DefaultDecimalScale
	}
	return &Evaluator{Scale: scale, GoCtx: context.Background()}
}

// deadlineExceeded reports whether the caller's deadline has passed.
func (e *Evaluator) deadlineExceeded() bool {
	if e.GoCtx == nil {
		return false
	}
	select {
	case <-e.GoCtx.Done():
		return true
	default:
		return false
	}
}

func (e *Evaluator) warn(format string, args ...interface{}) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// EvalCondition evaluates a Condition to a boolean.
func (e *Evaluator) EvalCondition(cond Condition, ctx *EvaluationContext) (bool, error) {
	switch node := cond.(type) {
	case *ComparisonCondition:
		return e.evalComparison(node, ctx)
	case *LogicalCondition:
		return e.evalLogical(node, ctx)
	case *ExpressionCondition:
		val, err := e.EvalExpr(node.Expression, ctx)
		if err != nil {
			return false, err
		}
		return e.toBool(val), nil
	default:
		return false, fmt.Errorf("unsupported condition type: %T", cond)
	}
}

// EvalConditions evaluates an AND of a `when[]` list (§4.7 step 4: "evaluate
// `when` as an AND of conditions").
func (e *Evaluator) EvalConditions(conds []Condition, ctx *EvaluationContext) (bool, error) {
	for _, c := range conds {
		ok, err := e.EvalCondition(c, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) evalLogical(node *LogicalCondition, ctx *EvaluationContext) (bool, error) {
	switch node.Op {
	case LogAnd:
		if len(node.Operands) == 0 {
			return true, nil
		}
		for _, operand := range node.Operands {
			ok, err := e.EvalCondition(operand, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case LogOr:
		if len(node.Operands) == 0 {
			return false, nil
		}
		for _, operand := range node.Operands {
			ok, err := e.EvalCondition(operand, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case LogNot:
		ok, err := e.EvalCondition(node.Operands[0], ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, fmt.Errorf("unsupported logical operator: %d", node.Op)
	}
}

func (e *Evaluator) evalComparison(node *ComparisonCondition, ctx *EvaluationContext) (bool, error) {
	left, err := e.EvalExpr(node.Left, ctx)
	if err != nil {
		return false, err
	}

	switch node.Op {
	case CmpIsNull:
		return left == nil, nil
	case CmpIsNotNull:
		return left != nil, nil
	case CmpIsEmpty:
		return isEmptyValue(left), nil
	case CmpIsNotEmpty:
		return !isEmptyValue(left), nil
	case CmpExists:
		return left != nil, nil
	case CmpIsNumeric:
		_, ok := e.toDecimal(left)
		return ok, nil
	case CmpIsEmail:
		return emailPattern.MatchString(e.toString(left)), nil
	case CmpIsPhone:
		return phonePattern.MatchString(stripPhonePunct(e.toString(left))), nil
	case CmpIsDate:
		_, err := parseDate(e.toString(left))
		return err == nil, nil
	case CmpIsPositive:
		d, ok := e.toDecimal(left)
		return ok && d.IsPositive(), nil
	case CmpIsNegative:
		d, ok := e.toDecimal(left)
		return ok && d.IsNegative(), nil
	case CmpIsZero:
		d, ok := e.toDecimal(left)
		return ok && d.IsZero(), nil
	case CmpIsPercentage:
		d, ok := e.toDecimal(left)
		return ok && d.GreaterThanOrEqual(decimal.Zero) && d.LessThanOrEqual(decimal.NewFromInt(100)), nil
	case CmpIsCurrency:
		d, ok := e.toDecimal(left)
		if !ok || d.IsNegative() {
			return false, nil
		}
		return d.Exponent() >= -2, nil
	case CmpIsCreditScore:
		d, ok := e.toDecimal(left)
		return ok && d.GreaterThanOrEqual(decimal.NewFromInt(300)) && d.LessThanOrEqual(decimal.NewFromInt(850)), nil
	case CmpIsSSN:
		digits := onlyDigits(e.toString(left))
		return len(digits) == 9 && ssnPattern.MatchString(e.toString(left)), nil
	case CmpIsAccountNumber:
		digits := onlyDigits(e.toString(left))
		return len(digits) >= 8 && len(digits) <= 17, nil
	case CmpIsRoutingNumber:
		digits := onlyDigits(e.toString(left))
		return len(digits) == 9, nil
	case CmpIsBusinessDay:
		t, err := parseDate(e.toString(left))
		if err != nil {
			return false, nil
		}
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday, nil
	case CmpIsWeekend:
		t, err := parseDate(e.toString(left))
		if err != nil {
			return false, nil
		}
		wd := t.Weekday()
		return wd == time.Saturday || wd == time.Sunday, nil
	}

	if node.Op == CmpAgeAtLeast || node.Op == CmpAgeLessThan {
		return e.evalAgeComparison(node, left, ctx)
	}

	right, err := e.EvalExpr(node.Right, ctx)
	if err != nil {
		return false, err
	}

	switch node.Op {
	case CmpEquals:
		return e.valuesEqual(left, right), nil
	case CmpNotEquals:
		return !e.valuesEqual(left, right), nil
	case CmpGreaterThan:
		return e.compareValues(left, right) > 0, nil
	case CmpLessThan:
		return e.compareValues(left, right) < 0, nil
	case CmpAtLeast:
		return e.compareValues(left, right) >= 0, nil
	case CmpAtMost:
		return e.compareValues(left, right) <= 0, nil
	case CmpContains:
		return e.containsValue(left, right), nil
	case CmpNotContains:
		return !e.containsValue(left, right), nil
	case CmpStartsWith:
		return strings.HasPrefix(e.toString(left), e.toString(right)), nil
	case CmpEndsWith:
		return strings.HasSuffix(e.toString(left), e.toString(right)), nil
	case CmpMatches:
		return e.regexMatch(left, right, ctx)
	case CmpNotMatches:
		matched, err := e.regexMatch(left, right, ctx)
		return !matched, err
	case CmpInList:
		return e.inList(left, right), nil
	case CmpNotInList:
		return !e.inList(left, right), nil
	case CmpBetween, CmpNotBetween:
		return e.evalBetween(node, left, right, ctx)
	}

	return false, fmt.Errorf("unsupported comparison operator: %d", node.Op)
}

func (e *Evaluator) evalBetween(node *ComparisonCondition, left, lower interface{}, ctx *EvaluationContext) (bool, error) {
	upper, err := e.EvalExpr(node.RangeEnd, ctx)
	if err != nil {
		return false, err
	}

	lowerD, lok := e.toDecimal(lower)
	upperD, uok := e.toDecimal(upper)
	valueD, vok := e.toDecimal(left)

	inRange := false
	if lok && uok && vok {
		if lowerD.GreaterThan(upperD) {
			e.warn("between bounds reversed at %s, swapping", node.Location())
			lowerD, upperD = upperD, lowerD
		}
		inRange = valueD.GreaterThanOrEqual(lowerD) && valueD.LessThanOrEqual(upperD)
	} else {
		lowerS, upperS, valueS := e.toString(lower), e.toString(upper), e.toString(left)
		if lowerS > upperS {
			e.warn("between bounds reversed at %s, swapping", node.Location())
			lowerS, upperS = upperS, lowerS
		}
		inRange = valueS >= lowerS && valueS <= upperS
	}

	if node.Op == CmpNotBetween {
		return !inRange, nil
	}
	return inRange, nil
}

func (e *Evaluator) evalAgeComparison(node *ComparisonCondition, left interface{}, ctx *EvaluationContext) (bool, error) {
	birth, err := parseDate(e.toString(left))
	if err != nil {
		return false, nil
	}
	right, err := e.EvalExpr(node.Right, ctx)
	if err != nil {
		return false, err
	}
	threshold, ok := e.toDecimal(right)
	if !ok {
		return false, nil
	}

	age := ageInYears(birth, time.Now())
	ageD := decimal.NewFromInt(int64(age))

	if node.Op == CmpAgeAtLeast {
		return ageD.GreaterThanOrEqual(threshold), nil
	}
	return ageD.LessThan(threshold), nil
}

func ageInYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// EvalExpr evaluates an Expr to its runtime value: decimal.Decimal, string,
// bool, nil, []interface{}, or map[string]interface{}.
func (e *Evaluator) EvalExpr(expr Expr, ctx *EvaluationContext) (interface{}, error) {
	switch node := expr.(type) {
	case *LiteralExpr:
		return e.resolveLiteral(node, ctx)
	case *VariableExpr:
		return e.evalVariable(node, ctx)
	case *UnaryExpr:
		return e.evalUnary(node, ctx)
	case *BinaryExpr:
		return e.evalBinary(node, ctx)
	case *ArithmeticExpr:
		return e.evalArithmeticExpr(node, ctx)
	case *FunctionCallExpr:
		return e.evalFunctionCall(node, ctx)
	case *JSONPathExpr:
		return e.evalJSONPath(node, ctx)
	case *RestCallExpr:
		return e.evalRestCall(node, ctx)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (e *Evaluator) resolveLiteral(node *LiteralExpr, ctx *EvaluationContext) (interface{}, error) {
	switch v := node.Value.(type) {
	case []Expr:
		resolved := make([]interface{}, len(v))
		for i, sub := range v {
			val, err := e.EvalExpr(sub, ctx)
			if err != nil {
				return nil, err
			}
			resolved[i] = val
		}
		return resolved, nil
	default:
		return v, nil
	}
}

func (e *Evaluator) evalVariable(node *VariableExpr, ctx *EvaluationContext) (interface{}, error) {
	val, _ := ctx.Get(node.Name)

	for _, field := range node.PropertyPath {
		val = accessProperty(val, field)
	}

	if node.Index != nil {
		idx, err := e.EvalExpr(node.Index, ctx)
		if err != nil {
			return nil, err
		}
		val = accessIndex(val, idx)
	}

	return val, nil
}

func accessProperty(val interface{}, field string) interface{} {
	switch v := val.(type) {
	case map[string]interface{}:
		return v[field]
	default:
		return nil
	}
}

func accessIndex(val, idx interface{}) interface{} {
	switch v := val.(type) {
	case []interface{}:
		i, ok := toInt(idx)
		if !ok || i < 0 || i >= len(v) {
			return nil
		}
		return v[i]
	case map[string]interface{}:
		key := fmt.Sprintf("%v", idx)
		return v[key]
	default:
		return nil
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return int(n.IntPart()), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0, false
		}
		return int(d.IntPart()), true
	}
	return 0, false
}

func (e *Evaluator) evalUnary(node *UnaryExpr, ctx *EvaluationContext) (interface{}, error) {
	switch node.Op {
	case OpNot:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return !e.toBool(val), nil
	case OpNegate:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		d, ok := e.toDecimal(val)
		if !ok {
			return nil, fmt.Errorf("cannot negate non-numeric value %v", val)
		}
		return d.Neg(), nil
	case OpPositive:
		return e.EvalExpr(node.Operand, ctx)
	case OpExists:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return val != nil, nil
	case OpIsNull:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return val == nil, nil
	case OpIsNotNull:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return val != nil, nil
	case OpIsNumber:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		_, ok := e.toDecimal(val)
		return ok, nil
	case OpIsString:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		_, ok := val.(string)
		return ok, nil
	case OpIsBoolean:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		_, ok := val.(bool)
		return ok, nil
	case OpIsList:
		val, err := e.EvalExpr(node.Operand, ctx)
		if err != nil {
			return nil, err
		}
		_, ok := val.([]interface{})
		return ok, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator: %d", node.Op)
	}
}

func (e *Evaluator) evalBinary(node *BinaryExpr, ctx *EvaluationContext) (interface{}, error) {
	left, err := e.EvalExpr(node.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.EvalExpr(node.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case BinAdd:
		return e.arith(left, right, func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }, func(a, b string) interface{} { return a + b })
	case BinSub:
		return e.decimalArith(left, right, func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) })
	case BinMul:
		return e.decimalArith(left, right, func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) })
	case BinDiv:
		return e.divide(left, right)
	case BinMod:
		return e.modulo(left, right)
	case BinPow:
		return e.power(left, right)
	case BinAnd:
		return e.toBool(left) && e.toBool(right), nil
	case BinOr:
		return e.toBool(left) || e.toBool(right), nil
	case BinEq:
		return e.valuesEqual(left, right), nil
	case BinNeq:
		return !e.valuesEqual(left, right), nil
	case BinGt:
		return e.compareValues(left, right) > 0, nil
	case BinLt:
		return e.compareValues(left, right) < 0, nil
	case BinGte:
		return e.compareValues(left, right) >= 0, nil
	case BinLte:
		return e.compareValues(left, right) <= 0, nil
	default:
		return nil, fmt.Errorf("unsupported binary operator: %d", node.Op)
	}
}

// arith implements "+" which is overloaded between numeric add and string
// concatenation.
func (e *Evaluator) arith(left, right interface{}, numOp func(a, b decimal.Decimal) decimal.Decimal, strOp func(a, b string) interface{}) (interface{}, error) {
	lD, lok := e.toDecimal(left)
	rD, rok := e.toDecimal(right)
	if lok && rok {
		return numOp(lD, rD).Round(e.Scale), nil
	}
	return strOp(e.toString(left), e.toString(right)), nil
}

func (e *Evaluator) decimalArith(left, right interface{}, op func(a, b decimal.Decimal) decimal.Decimal) (interface{}, error) {
	lD, lok := e.toDecimal(left)
	rD, rok := e.toDecimal(right)
	if !lok || !rok {
		return nil, fmt.Errorf("arithmetic requires numeric operands, got %T and %T", left, right)
	}
	return op(lD, rD).Round(e.Scale), nil
}

func (e *Evaluator) divide(left, right interface{}) (interface{}, error) {
	lD, lok := e.toDecimal(left)
	rD, rok := e.toDecimal(right)
	if !lok || !rok {
		return nil, fmt.Errorf("division requires numeric operands, got %T and %T", left, right)
	}
	if rD.IsZero() {
		if lD.IsZero() {
			e.warn("0/0 division at evaluation, returning zero")
			return decimal.Zero, nil
		}
		return nil, newLexError(ErrEvalDivByZero, "division by zero", SentinelLocation)
	}
	return lD.DivRound(rD, e.Scale), nil
}

func (e *Evaluator) modulo(left, right interface{}) (interface{}, error) {
	lD, lok := e.toDecimal(left)
	rD, rok := e.toDecimal(right)
	if !lok || !rok {
		return nil, fmt.Errorf("modulo requires numeric operands, got %T and %T", left, right)
	}
	if rD.IsZero() {
		return nil, newLexError(ErrEvalDivByZero, "modulo by zero", SentinelLocation)
	}
	quotient := lD.Div(rD).Truncate(0)
	return lD.Sub(quotient.Mul(rD)).Round(e.Scale), nil
}

func (e *Evaluator) power(left, right interface{}) (interface{}, error) {
	lD, lok := e.toDecimal(left)
	rD, rok := e.toDecimal(right)
	if !lok || !rok {
		return nil, fmt.Errorf("power requires numeric operands, got %T and %T", left, right)
	}
	if rD.Exponent() >= 0 {
		return lD.Pow(rD).Round(e.Scale), nil
	}
	// Non-integer exponent: fall back to float64, flag precision loss.
	e.warn("%s", ErrEvalPrecisionLoss)
	base, _ := lD.Float64()
	exp, _ := rD.Float64()
	return decimal.NewFromFloat(math.Pow(base, exp)).Round(e.Scale), nil
}

func (e *Evaluator) evalArithmeticExpr(node *ArithmeticExpr, ctx *EvaluationContext) (interface{}, error) {
	values := make([]decimal.Decimal, 0, len(node.Operands))
	for _, operand := range node.Operands {
		val, err := e.EvalExpr(operand, ctx)
		if err != nil {
			return nil, err
		}
		d, ok := e.toDecimal(val)
		if !ok {
			return nil, fmt.Errorf("%s requires numeric operands, got %T", node.Op, val)
		}
		values = append(values, d)
	}

	switch node.Op {
	case "sum":
		total := decimal.Zero
		for _, v := range values {
			total = total.Add(v)
		}
		return total.Round(e.Scale), nil
	case "average":
		if len(values) == 0 {
			return decimal.Zero, nil
		}
		total := decimal.Zero
		for _, v := range values {
			total = total.Add(v)
		}
		return total.DivRound(decimal.NewFromInt(int64(len(values))), e.Scale), nil
	case "min":
		return minDecimal(values), nil
	case "max":
		return maxDecimal(values), nil
	default:
		return nil, fmt.Errorf("unsupported arithmetic function: %s", node.Op)
	}
}

func minDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	min := values[0]
	for _, v := range values[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

func maxDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	max := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return max
}

func (e *Evaluator) regexMatch(left, right interface{}, ctx *EvaluationContext) (bool, error) {
	pattern := e.toString(right)
	re, err := ctx.CompiledRegex(pattern)
	if err != nil {
		return false, newLexError(ErrEvalBadRegex, "invalid regex pattern '"+pattern+"'", SentinelLocation)
	}
	return re.MatchString(e.toString(left)), nil
}

func (e *Evaluator) inList(value, list interface{}) bool {
	items, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, item := range items {
		if e.valuesEqual(value, item) {
			return true
		}
	}
	return false
}

func (e *Evaluator) containsValue(container, value interface{}) bool {
	switch c := container.(type) {
	case string:
		return strings.Contains(c, e.toString(value))
	case []interface{}:
		for _, item := range c {
			if e.valuesEqual(item, value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}

// valuesEqual implements value equality: decimals numerically, strings
// case-sensitively, booleans by identity, null equals only null.
func (e *Evaluator) valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if aD, aok := e.toDecimal(a); aok {
		if bD, bok := e.toDecimal(b); bok {
			return aD.Equal(bD)
		}
		return false
	}
	if aB, aok := a.(bool); aok {
		bB, bok := b.(bool)
		return aok == bok && aB == bB
	}
	return e.toString(a) == e.toString(b)
}

func (e *Evaluator) compareValues(a, b interface{}) int {
	if aD, aok := e.toDecimal(a); aok {
		if bD, bok := e.toDecimal(b); bok {
			return aD.Cmp(bD)
		}
	}
	return strings.Compare(e.toString(a), e.toString(b))
}

// toBool implements the spec's fixed truthiness coercion.
func (e *Evaluator) toBool(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case decimal.Decimal:
		return !val.IsZero()
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		if d, ok := e.toDecimal(val); ok {
			return !d.IsZero()
		}
		return false
	}
}

func (e *Evaluator) toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case float64:
		return decimal.NewFromFloat(val), true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case bool:
		if val {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	default:
		return decimal.Zero, false
	}
}

func (e *Evaluator) toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case float64:
		d, _ := e.toDecimal(val)
		return d.String()
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = e.toString(item)
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripPhonePunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseDate(s string) (time.Time, error) {
	formats := []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05"}
	var lastErr error
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

