package rules

import (
	"github.com/shopspring/decimal"
)

// circuitBreakerSignal is a control-flow signal, not an error: it unwinds
// the enclosing action block(s) but the rule still reports success=true
// (§4.6, §7). It is recognised by type, never by error code.
type circuitBreakerSignal struct {
	message string
	code    string
}

func (s *circuitBreakerSignal) Error() string { return "circuit_breaker: " + s.message }

// Executor runs an Action list sequentially against an EvaluationContext,
// mirroring the Evaluator's type-switch dispatch shape (no visitor
// interface) but folding over Action instead of Expr/Condition.
type Executor struct {
	eval *Evaluator
}

// NewExecutor builds an Executor backed by eval for expression/condition
// sub-evaluation.
func NewExecutor(eval *Evaluator) *Executor {
	return &Executor{eval: eval}
}

// Run executes actions in source order. It returns the circuitBreakerSignal
// (if one was raised) and any fatal error. Recoverable action faults are
// logged as evaluator warnings and execution continues to the next action
// in the same block (§4.6 failure policy).
func (x *Executor) Run(actions []Action, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	for _, action := range actions {
		if x.eval.deadlineExceeded() {
			return nil, newLexError(ErrEvalTimeout, "evaluation deadline exceeded", action.Location())
		}
		sig, err := x.runOne(action, ctx)
		if sig != nil {
			return sig, nil
		}
		if err != nil {
			if isFatalActionError(err) {
				return nil, err
			}
			x.eval.warn("action failed: %v", err)
		}
	}
	return nil, nil
}

// RunBlock runs block's actions in order, then recurses into its nested
// Conditional action (if any) — used by the YAML `conditions` shape, whose
// `nested` sub-tree can extend arbitrarily deep (§4.3, §4.7).
func (x *Executor) RunBlock(block ActionBlock, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	sig, err := x.Run(block.Actions, ctx)
	if sig != nil || err != nil {
		return sig, err
	}
	if block.Nested != nil {
		return x.runOne(block.Nested, ctx)
	}
	return nil, nil
}

func isFatalActionError(err error) bool {
	ce, ok := err.(*CodedError)
	if !ok {
		return false
	}
	return ce.Code == ErrEvalLoopLimit || ce.Code == ErrEvalMissingConstant || ce.Code == ErrEvalTimeout
}

func (x *Executor) runOne(action Action, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	switch node := action.(type) {
	case *AssignmentAction:
		val, err := x.eval.EvalExpr(node.Value, ctx)
		if err != nil {
			return nil, err
		}
		ctx.SetComputed(node.Target, val)
		return nil, nil

	case *CalculateAction:
		val, err := x.eval.EvalExpr(node.Value, ctx)
		if err != nil {
			return nil, err
		}
		ctx.SetComputed(node.Target, val)
		return nil, nil

	case *RunAction:
		val, err := x.eval.EvalExpr(node.Value, ctx)
		if err != nil {
			return nil, err
		}
		ctx.SetComputed(node.Target, val)
		return nil, nil

	case *ArithmeticAction:
		return nil, x.runArithmetic(node, ctx)

	case *ListAction:
		return nil, x.runList(node, ctx)

	case *FunctionCallAction:
		_, err := x.eval.EvalExpr(node.Call, ctx)
		return nil, err

	case *ConditionalAction:
		result, err := x.eval.EvalCondition(node.Cond, ctx)
		if err != nil {
			return nil, err
		}
		if result {
			return x.RunBlock(node.Then, ctx)
		}
		if node.Else != nil {
			return x.RunBlock(*node.Else, ctx)
		}
		return nil, nil

	case *ForEachAction:
		return x.runForEach(node, ctx)

	case *WhileAction:
		return x.runWhile(node, ctx)

	case *DoWhileAction:
		return x.runDoWhile(node, ctx)

	case *CircuitBreakerAction:
		msg := ""
		if node.Message != nil {
			v, err := x.eval.EvalExpr(node.Message, ctx)
			if err != nil {
				return nil, err
			}
			msg = x.eval.toString(v)
		}
		code := ""
		if node.Code != nil {
			v, err := x.eval.EvalExpr(node.Code, ctx)
			if err != nil {
				return nil, err
			}
			code = x.eval.toString(v)
		}
		ctx.CircuitBreakerTriggered = true
		ctx.CircuitBreakerMessage = msg
		return &circuitBreakerSignal{message: msg, code: code}, nil

	default:
		return nil, nil
	}
}

// runArithmetic reads the current value of the target, promotes to decimal,
// applies the operation, and stores it back. add/subtract default a missing
// target to zero; multiply/divide raise EVAL_UNDEFINED_TARGET (§4.6).
func (x *Executor) runArithmetic(node *ArithmeticAction, ctx *EvaluationContext) error {
	operand, err := x.eval.EvalExpr(node.Operand, ctx)
	if err != nil {
		return err
	}
	opDec, _ := x.eval.toDecimal(operand)

	current, exists := ctx.Get(node.Target)
	var currentDec decimal.Decimal
	if exists {
		currentDec, _ = x.eval.toDecimal(current)
	} else {
		switch node.Op {
		case ArithAdd, ArithSubtract:
			currentDec = decimal.Zero
		default:
			return newLexError(ErrEvalUndefinedTarget, "undefined target '"+node.Target+"' for arithmetic action", SentinelLocation)
		}
	}

	var result decimal.Decimal
	switch node.Op {
	case ArithAdd:
		result = currentDec.Add(opDec)
	case ArithSubtract:
		result = currentDec.Sub(opDec)
	case ArithMultiply:
		result = currentDec.Mul(opDec)
	case ArithDivide:
		d, err := x.eval.divide(currentDec, opDec)
		if err != nil {
			return err
		}
		result, _ = d.(decimal.Decimal)
	}
	ctx.SetComputed(node.Target, result.Round(x.eval.Scale))
	return nil
}

// runList applies append/prepend/remove to the target list, initialising a
// null target to an empty list first (§4.6).
func (x *Executor) runList(node *ListAction, ctx *EvaluationContext) error {
	val, err := x.eval.EvalExpr(node.Value, ctx)
	if err != nil {
		return err
	}

	current, _ := ctx.Get(node.Target)
	list, ok := current.([]interface{})
	if !ok {
		list = []interface{}{}
	}

	switch node.Op {
	case ListAppend:
		list = append(list, val)
	case ListPrepend:
		list = append([]interface{}{val}, list...)
	case ListRemove:
		out := make([]interface{}, 0, len(list))
		removed := false
		for _, item := range list {
			if !removed && x.eval.valuesEqual(item, val) {
				removed = true
				continue
			}
			out = append(out, item)
		}
		list = out
	}
	ctx.SetComputed(node.Target, list)
	return nil
}

// runForEach evaluates list_expr once, then binds var (and index_var, if
// present) as computed variables for each element, restoring their prior
// values after the loop (§4.6).
func (x *Executor) runForEach(node *ForEachAction, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	listVal, err := x.eval.EvalExpr(node.ListExpr, ctx)
	if err != nil {
		return nil, err
	}
	list, _ := listVal.([]interface{})

	prevVar, hadVar := ctx.Get(node.Var)
	var prevIdx interface{}
	var hadIdx bool
	if node.IndexVar != "" {
		prevIdx, hadIdx = ctx.Get(node.IndexVar)
	}

	defer func() {
		if hadVar {
			ctx.SetComputed(node.Var, prevVar)
		} else {
			ctx.DeleteComputed(node.Var)
		}
		if node.IndexVar != "" {
			if hadIdx {
				ctx.SetComputed(node.IndexVar, prevIdx)
			} else {
				ctx.DeleteComputed(node.IndexVar)
			}
		}
	}()

	for i, elem := range list {
		if i >= MaxLoopIterations {
			return nil, newLexError(ErrEvalLoopLimit, "forEach exceeded maximum iteration count", node.Location())
		}
		if x.eval.deadlineExceeded() {
			return nil, newLexError(ErrEvalTimeout, "evaluation deadline exceeded", node.Location())
		}
		ctx.SetComputed(node.Var, elem)
		if node.IndexVar != "" {
			ctx.SetComputed(node.IndexVar, decimal.NewFromInt(int64(i)))
		}
		sig, err := x.Run(node.Body, ctx)
		if sig != nil || err != nil {
			return sig, err
		}
	}
	return nil, nil
}

// runWhile checks cond, runs body, repeats; capped at MaxLoopIterations.
func (x *Executor) runWhile(node *WhileAction, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	for i := 0; ; i++ {
		if i >= MaxLoopIterations {
			return nil, newLexError(ErrEvalLoopLimit, "while loop exceeded maximum iteration count", node.Location())
		}
		if x.eval.deadlineExceeded() {
			return nil, newLexError(ErrEvalTimeout, "evaluation deadline exceeded", node.Location())
		}
		cond, err := x.eval.EvalCondition(node.Cond, ctx)
		if err != nil {
			return nil, err
		}
		if !cond {
			return nil, nil
		}
		sig, err := x.Run(node.Body, ctx)
		if sig != nil || err != nil {
			return sig, err
		}
	}
}

// runDoWhile executes body once, then checks cond and repeats; same cap.
func (x *Executor) runDoWhile(node *DoWhileAction, ctx *EvaluationContext) (*circuitBreakerSignal, error) {
	for i := 0; ; i++ {
		if i >= MaxLoopIterations {
			return nil, newLexError(ErrEvalLoopLimit, "do-while loop exceeded maximum iteration count", node.Location())
		}
		if x.eval.deadlineExceeded() {
			return nil, newLexError(ErrEvalTimeout, "evaluation deadline exceeded", node.Location())
		}
		sig, err := x.Run(node.Body, ctx)
		if sig != nil || err != nil {
			return sig, err
		}
		cond, err := x.eval.EvalCondition(node.Cond, ctx)
		if err != nil {
			return nil, err
		}
		if !cond {
			return nil, nil
		}
	}
}
