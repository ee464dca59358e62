package rules

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fireflyframework/ruleenginectl/internal/jsonbridge"
	"github.com/fireflyframework/ruleenginectl/internal/observability"
	"github.com/fireflyframework/ruleenginectl/internal/restbridge"
)

// evalJSONPath delegates json_get/json_exists/json_size to jsonbridge.
func (e *Evaluator) evalJSONPath(node *JSONPathExpr, ctx *EvaluationContext) (interface{}, error) {
	source, err := e.EvalExpr(node.Source, ctx)
	if err != nil {
		return nil, err
	}
	path, err := e.EvalExpr(node.Path, ctx)
	if err != nil {
		return nil, err
	}
	pathStr := e.toString(path)

	switch node.Kind {
	case "get":
		return jsonbridge.Get(source, pathStr), nil
	case "exists":
		return jsonbridge.Exists(source, pathStr), nil
	case "size":
		return decimal.NewFromInt(int64(jsonbridge.Size(source, pathStr))), nil
	default:
		return nil, fmt.Errorf("unknown json path kind: %s", node.Kind)
	}
}

// evalRestCall delegates rest_get/post/put/delete/patch to restbridge.
// Failures never surface as a Go error — they fold into the structured map
// per §4.5.
func (e *Evaluator) evalRestCall(node *RestCallExpr, ctx *EvaluationContext) (interface{}, error) {
	url, err := e.EvalExpr(node.URL, ctx)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if node.Body != nil {
		body, err = e.EvalExpr(node.Body, ctx)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if node.Headers != nil {
		hv, err := e.EvalExpr(node.Headers, ctx)
		if err != nil {
			return nil, err
		}
		if hm, ok := hv.(map[string]interface{}); ok {
			for k, v := range hm {
				headers[k] = e.toString(v)
			}
		}
	}

	timeout := restbridge.DefaultTimeout
	if node.Timeout != nil {
		tv, err := e.EvalExpr(node.Timeout, ctx)
		if err != nil {
			return nil, err
		}
		if d, ok := e.toDecimal(tv); ok {
			timeout = time.Duration(d.IntPart()) * time.Millisecond
		}
	}

	if e.restClient == nil {
		e.restClient = restbridge.NewClient()
	}

	goCtx := e.GoCtx
	if goCtx == nil {
		goCtx = context.Background()
	}
	resp := e.restClient.Call(goCtx, strings.ToUpper(node.Method), e.toString(url), body, headers, timeout)
	return map[string]interface{}{
		"success": resp.Success,
		"error":   resp.Error,
		"message": resp.Message,
		"status":  decimal.NewFromInt(int64(resp.Status)),
		"body":    resp.Body,
	}, nil
}

// evalFunctionCall dispatches a builtin function by its fixed catalogue
// name (§4.5). Unknown names fail with EVAL_UNKNOWN_FUNCTION.
func (e *Evaluator) evalFunctionCall(node *FunctionCallExpr, ctx *EvaluationContext) (interface{}, error) {
	args := make([]interface{}, len(node.Args))
	for i, a := range node.Args {
		val, err := e.EvalExpr(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	switch node.Name {
	// math
	case "abs":
		d, _ := e.toDecimal(arg(args, 0))
		return d.Abs(), nil
	case "min":
		a, _ := e.toDecimal(arg(args, 0))
		b, _ := e.toDecimal(arg(args, 1))
		if a.LessThan(b) {
			return a, nil
		}
		return b, nil
	case "max":
		a, _ := e.toDecimal(arg(args, 0))
		b, _ := e.toDecimal(arg(args, 1))
		if a.GreaterThan(b) {
			return a, nil
		}
		return b, nil
	case "round":
		d, _ := e.toDecimal(arg(args, 0))
		places := int32(0)
		if len(args) > 1 {
			if p, ok := e.toDecimal(args[1]); ok {
				places = int32(p.IntPart())
			}
		}
		return d.Round(places), nil
	case "floor":
		d, _ := e.toDecimal(arg(args, 0))
		return d.Floor(), nil
	case "ceil":
		d, _ := e.toDecimal(arg(args, 0))
		return d.Ceil(), nil
	case "sqrt":
		d, _ := e.toDecimal(arg(args, 0))
		f, _ := d.Float64()
		return decimal.NewFromFloat(math.Sqrt(f)).Round(e.Scale), nil
	case "sum":
		return sumArgs(e, args), nil
	case "average":
		return averageArgs(e, args), nil

	// string
	case "upper":
		return strings.ToUpper(e.toString(arg(args, 0))), nil
	case "lower":
		return strings.ToLower(e.toString(arg(args, 0))), nil
	case "trim":
		return strings.TrimSpace(e.toString(arg(args, 0))), nil
	case "length":
		return decimal.NewFromInt(int64(len([]rune(e.toString(arg(args, 0)))))), nil
	case "substring":
		return substring(e.toString(arg(args, 0)), args[1:]), nil
	case "replace":
		return strings.ReplaceAll(e.toString(arg(args, 0)), e.toString(arg(args, 1)), e.toString(arg(args, 2))), nil
	case "format_currency":
		d, _ := e.toDecimal(arg(args, 0))
		return "$" + d.StringFixed(2), nil
	case "format_percentage":
		d, _ := e.toDecimal(arg(args, 0))
		return d.StringFixed(2) + "%", nil

	// collection
	case "size":
		return collectionSize(arg(args, 0)), nil
	case "first":
		return collectionFirst(arg(args, 0)), nil
	case "last":
		return collectionLast(arg(args, 0)), nil

	// date
	case "now":
		return time.Now().Format(time.RFC3339), nil
	case "today":
		return time.Now().Format("2006-01-02"), nil
	case "add_days":
		t, err := parseDate(e.toString(arg(args, 0)))
		if err != nil {
			return nil, nil
		}
		d, _ := e.toDecimal(arg(args, 1))
		return t.AddDate(0, 0, int(d.IntPart())).Format("2006-01-02"), nil
	case "diff_days":
		t1, err1 := parseDate(e.toString(arg(args, 0)))
		t2, err2 := parseDate(e.toString(arg(args, 1)))
		if err1 != nil || err2 != nil {
			return nil, nil
		}
		return decimal.NewFromInt(int64(t2.Sub(t1).Hours() / 24)), nil

	// validation wrappers
	case "is_valid":
		return isValidFormat(e.toString(arg(args, 0)), e.toString(arg(args, 1))), nil
	case "in_range":
		v, _ := e.toDecimal(arg(args, 0))
		lo, _ := e.toDecimal(arg(args, 1))
		hi, _ := e.toDecimal(arg(args, 2))
		return v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi), nil

	// logging
	case "log":
		msg := e.toString(arg(args, 0))
		level := "info"
		if len(args) > 1 {
			level = strings.ToLower(e.toString(args[1]))
		}
		logAtLevel(level, msg, ctx.OperationID)
		return nil, nil
	}

	return nil, newLexError(ErrEvalUnknownFunction, "unknown function '"+node.Name+"'", node.Location())
}

func arg(args []interface{}, i int) interface{} {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

func sumArgs(e *Evaluator, args []interface{}) decimal.Decimal {
	total := decimal.Zero
	for _, a := range flattenArgs(args) {
		if d, ok := e.toDecimal(a); ok {
			total = total.Add(d)
		}
	}
	return total.Round(e.Scale)
}

func averageArgs(e *Evaluator, args []interface{}) decimal.Decimal {
	flat := flattenArgs(args)
	if len(flat) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	count := 0
	for _, a := range flat {
		if d, ok := e.toDecimal(a); ok {
			total = total.Add(d)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), e.Scale)
}

func flattenArgs(args []interface{}) []interface{} {
	if len(args) == 1 {
		if list, ok := args[0].([]interface{}); ok {
			return list
		}
	}
	return args
}

func substring(s string, args []interface{}) string {
	r := []rune(s)
	start := 0
	end := len(r)
	if len(args) > 0 {
		if d, ok := args[0].(decimal.Decimal); ok {
			start = int(d.IntPart())
		}
	}
	if len(args) > 1 {
		if d, ok := args[1].(decimal.Decimal); ok {
			end = int(d.IntPart())
		}
	}
	if start < 0 {
		start = 0
	}
	if end > len(r) {
		end = len(r)
	}
	if start > end {
		return ""
	}
	return string(r[start:end])
}

func collectionSize(v interface{}) decimal.Decimal {
	switch c := v.(type) {
	case []interface{}:
		return decimal.NewFromInt(int64(len(c)))
	case map[string]interface{}:
		return decimal.NewFromInt(int64(len(c)))
	case string:
		return decimal.NewFromInt(int64(len([]rune(c))))
	default:
		return decimal.Zero
	}
}

func collectionFirst(v interface{}) interface{} {
	if c, ok := v.([]interface{}); ok && len(c) > 0 {
		return c[0]
	}
	return nil
}

func collectionLast(v interface{}) interface{} {
	if c, ok := v.([]interface{}); ok && len(c) > 0 {
		return c[len(c)-1]
	}
	return nil
}

func isValidFormat(value, format string) bool {
	switch strings.ToLower(format) {
	case "email":
		return emailPattern.MatchString(value)
	case "phone":
		return phonePattern.MatchString(stripPhonePunct(value))
	case "date":
		_, err := parseDate(value)
		return err == nil
	case "ssn":
		return ssnPattern.MatchString(value)
	default:
		return false
	}
}

func logAtLevel(level, msg, operationID string) {
	switch level {
	case "debug":
		observability.Debug("rule.log operation_id=%s message=%s", operationID, msg)
	case "warn", "warning":
		observability.Warn("rule.log operation_id=%s message=%s", operationID, msg)
	case "error":
		observability.Error("rule.log operation_id=%s message=%s", operationID, msg)
	default:
		observability.Info("rule.log operation_id=%s message=%s", operationID, msg)
	}
}
