package rules

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fireflyframework/ruleenginectl/internal/observability"
)

// constantNamePattern matches the UPPER_SNAKE identifiers the constant
// auto-discovery visitor collects (§4.7, §9).
var constantNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ConstantStore is the external collaborator that resolves constant codes
// to current values (§6). Implementations must treat returned values as
// copy-on-read; the engine never writes through this interface.
type ConstantStore interface {
	GetConstantsByCodes(ctx context.Context, codes []string) (map[string]interface{}, error)
}

// Cache is the external AST/constant/validation cache (§6). Keys are
// pre-namespaced by the caller (prefixes "ast:", "constant:", "rule-def:",
// "validation:"); the engine only ever uses the "ast:" namespace.
type Cache interface {
	Get(key string) (interface{}, bool)
	Put(key string, value interface{})
	Evict(key string)
	Clear()
}

// Result is the outcome of one rule evaluation (§6).
type Result struct {
	Success                 bool                   `json:"success"`
	ConditionResult         bool                   `json:"condition_result"`
	OutputData              map[string]interface{} `json:"output_data"`
	ExecutionTimeMS         int64                  `json:"execution_time_ms"`
	CircuitBreakerTriggered bool                   `json:"circuit_breaker_triggered,omitempty"`
	CircuitBreakerMessage   string                 `json:"circuit_breaker_message,omitempty"`
	Error                   string                 `json:"error,omitempty"`
}

// ParseFunc turns a raw YAML rule source into a RulesDSL. The engine
// itself has no YAML dependency — it is injected so that package rules
// never imports the assembler package that, in turn, depends on rules'
// own AST types.
type ParseFunc func(source string) (*RulesDSL, error)

// Engine orchestrates parsing, constant resolution, and evaluation of one
// rule source against one input map (§4.7). Modeled on the teacher's
// RuleEngine (superseded engine.go): a registry the caller drives one
// evaluation at a time through, generalised from a per-rule-ID map cache
// to content-hash AST caching since rule sources, not rule IDs, are the
// unit of identity here.
type Engine struct {
	cache Cache
	store ConstantStore
	scale int32
	parse ParseFunc
}

// NewEngine builds an Engine. cache and store may be nil: a nil cache
// disables AST reuse (every call reparses); a nil store means only
// constants with an explicit defaultValue can resolve.
func NewEngine(parse ParseFunc, cache Cache, store ConstantStore, scale int32) *Engine {
	if scale <= 0 {
		scale = DefaultDecimalScale
	}
	return &Engine{parse: parse, cache: cache, store: store, scale: scale}
}

// Evaluate parses (or reuses a cached parse of) source, resolves constants,
// and runs the rule against input, honouring ctx's deadline if any (§5).
func (eng *Engine) Evaluate(ctx context.Context, source string, input map[string]interface{}) Result {
	start := time.Now()
	fsm := NewEvalFSM(uuid.NewString())

	dsl, err := eng.resolveAST(source)
	if err != nil {
		fsm.Transition(EventParseFailed)
		observability.RulesCompiledTotal.WithLabelValues("error").Inc()
		return Result{Success: false, Error: err.Error(), ExecutionTimeMS: elapsedMS(start)}
	}
	fsm.Transition(EventParsed)
	observability.RulesCompiledTotal.WithLabelValues("success").Inc()

	evalCtx := NewEvaluationContext(input, nil)
	evalCtx.OperationID = fsm.operationID

	if err := eng.loadConstants(ctx, dsl, evalCtx); err != nil {
		fsm.Transition(EventConstantsFailed)
		observability.RuleEvaluationTotal.WithLabelValues(dsl.Name, "error").Inc()
		return eng.finish(fsm, dsl, evalCtx, start, false, err.Error())
	}
	fsm.Transition(EventConstantsLoaded)

	evalr := NewEvaluator(eng.scale)
	evalr.GoCtx = ctx
	exec := NewExecutor(evalr)

	conditionResult, sig, err := eng.dispatch(dsl, evalr, exec, evalCtx)
	if err != nil {
		fsm.Transition(EventEvalFailed)
		observability.RuleEvaluationTotal.WithLabelValues(dsl.Name, "error").Inc()
		errMsg := err.Error()
		if ce, ok := err.(*CodedError); ok && ce.Code == ErrEvalTimeout {
			errMsg = "timeout"
		}
		return eng.finish(fsm, dsl, evalCtx, start, false, errMsg)
	}

	evalCtx.SetComputed("conditionResult", conditionResult)

	if sig != nil {
		fsm.Transition(EventCircuitBroken)
		observability.CircuitBreakerTrips.WithLabelValues(dsl.Name).Inc()
		fsm.Transition(EventCompleted)
	} else {
		fsm.Transition(EventEvaluated)
		fsm.Transition(EventCompleted)
	}
	observability.RuleEvaluationTotal.WithLabelValues(dsl.Name, "success").Inc()
	observability.RuleEvaluationDuration.WithLabelValues(dsl.Name, "success").Observe(time.Since(start).Seconds())

	res := eng.finish(fsm, dsl, evalCtx, start, true, "")
	res.ConditionResult = conditionResult
	if sig != nil {
		res.CircuitBreakerTriggered = true
		res.CircuitBreakerMessage = sig.message
	}
	return res
}

func (eng *Engine) finish(fsm *EvalFSM, dsl *RulesDSL, evalCtx *EvaluationContext, start time.Time, success bool, errMsg string) Result {
	res := Result{
		Success:         success,
		ExecutionTimeMS: elapsedMS(start),
		Error:           errMsg,
	}
	if dsl != nil {
		res.OutputData = assembleOutput(dsl, evalCtx)
	} else if evalCtx != nil {
		res.OutputData = evalCtx.Computed()
	} else {
		res.OutputData = map[string]interface{}{}
	}
	return res
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// resolveAST looks up a cached parse by the SHA-256 of the normalised
// source, parsing and storing on miss (§4.7 step 1).
func (eng *Engine) resolveAST(source string) (*RulesDSL, error) {
	key := "ast:" + hashSource(source)
	if eng.cache != nil {
		if cached, ok := eng.cache.Get(key); ok {
			if dsl, ok := cached.(*RulesDSL); ok {
				observability.ASTCacheHits.WithLabelValues("hit").Inc()
				return dsl, nil
			}
		}
		observability.ASTCacheHits.WithLabelValues("miss").Inc()
	}

	parseStart := time.Now()
	dsl, err := eng.parse(source)
	observability.RuleParseDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		return nil, err
	}
	if eng.cache != nil {
		eng.cache.Put(key, dsl)
	}
	return dsl, nil
}

func hashSource(source string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(source), "\r\n", "\n")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// loadConstants auto-discovers every UPPER_SNAKE variable name reachable
// from the AST, unions it with explicitly declared constant codes, fetches
// values from the store in one batch, and falls back to declared defaults
// for anything missing (§4.7 step 3).
func (eng *Engine) loadConstants(ctx context.Context, dsl *RulesDSL, evalCtx *EvaluationContext) error {
	discovered := discoverConstants(dsl)
	defaults := map[string]interface{}{}
	for _, c := range dsl.Constants {
		discovered[c.Code] = struct{}{}
		if c.HasDefault {
			defaults[c.Code] = c.DefaultValue
		}
	}
	if len(discovered) == 0 {
		return nil
	}

	codes := make([]string, 0, len(discovered))
	for code := range discovered {
		codes = append(codes, code)
	}

	resolved := map[string]interface{}{}
	if eng.store != nil {
		fetched, err := eng.store.GetConstantsByCodes(ctx, codes)
		if err != nil {
			return newLexError(ErrEvalStoreUnavailable, "constant store unavailable: "+err.Error(), SentinelLocation)
		}
		resolved = fetched
	}

	var missing []string
	for _, code := range codes {
		if v, ok := resolved[code]; ok {
			evalCtx.SetConstant(code, v)
			observability.ConstantsLoaded.WithLabelValues("resolved").Inc()
			continue
		}
		if v, ok := defaults[code]; ok {
			evalCtx.SetConstant(code, v)
			observability.ConstantsLoaded.WithLabelValues("default").Inc()
			continue
		}
		observability.ConstantsLoaded.WithLabelValues("missing").Inc()
		missing = append(missing, code)
	}

	if len(missing) > 0 {
		return newLexError(ErrEvalMissingConstant, "missing constants: "+strings.Join(missing, ", "), SentinelLocation)
	}
	return nil
}

// discoverConstants walks every reachable node and collects Variable names
// matching constantNamePattern. Coverage must be exhaustive: nested
// conditionals, loop bodies, JSON-path source expressions, and REST
// url/body/headers all carry Variable references (§9).
func discoverConstants(dsl *RulesDSL) map[string]struct{} {
	found := map[string]struct{}{}
	add := func(name string) {
		if constantNamePattern.MatchString(name) {
			found[name] = struct{}{}
		}
	}

	var walkExpr func(e Expr)
	var walkCond func(c Condition)
	var walkAction func(a Action)
	var walkBlock func(b ActionBlock)

	walkExpr = func(e Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *VariableExpr:
			add(n.Name)
			if n.Index != nil {
				walkExpr(n.Index)
			}
		case *UnaryExpr:
			walkExpr(n.Operand)
		case *BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ArithmeticExpr:
			for _, op := range n.Operands {
				walkExpr(op)
			}
		case *FunctionCallExpr:
			for _, arg := range n.Args {
				walkExpr(arg)
			}
		case *JSONPathExpr:
			walkExpr(n.Source)
			walkExpr(n.Path)
		case *RestCallExpr:
			walkExpr(n.URL)
			walkExpr(n.Body)
			walkExpr(n.Headers)
			walkExpr(n.Timeout)
		case *LiteralExpr:
			if list, ok := n.Value.([]Expr); ok {
				for _, item := range list {
					walkExpr(item)
				}
			}
		}
	}

	walkCond = func(c Condition) {
		if c == nil {
			return
		}
		switch n := c.(type) {
		case *ComparisonCondition:
			walkExpr(n.Left)
			walkExpr(n.Right)
			walkExpr(n.RangeEnd)
		case *LogicalCondition:
			for _, op := range n.Operands {
				walkCond(op)
			}
		case *ExpressionCondition:
			walkExpr(n.Expression)
		}
	}

	walkBlock = func(b ActionBlock) {
		for _, a := range b.Actions {
			walkAction(a)
		}
		if b.Nested != nil {
			walkAction(b.Nested)
		}
	}

	walkAction = func(a Action) {
		if a == nil {
			return
		}
		switch n := a.(type) {
		case *AssignmentAction:
			walkExpr(n.Value)
		case *CalculateAction:
			walkExpr(n.Value)
		case *RunAction:
			walkExpr(n.Value)
		case *ArithmeticAction:
			walkExpr(n.Operand)
		case *ListAction:
			walkExpr(n.Value)
		case *FunctionCallAction:
			walkExpr(n.Call)
		case *ConditionalAction:
			walkCond(n.Cond)
			walkBlock(n.Then)
			if n.Else != nil {
				walkBlock(*n.Else)
			}
		case *ForEachAction:
			walkExpr(n.ListExpr)
			for _, body := range n.Body {
				walkAction(body)
			}
		case *WhileAction:
			walkCond(n.Cond)
			for _, body := range n.Body {
				walkAction(body)
			}
		case *DoWhileAction:
			for _, body := range n.Body {
				walkAction(body)
			}
			walkCond(n.Cond)
		case *CircuitBreakerAction:
			walkExpr(n.Message)
			walkExpr(n.Code)
		}
	}

	switch dsl.Shape {
	case ShapeSimple:
		for _, c := range dsl.Simple.When {
			walkCond(c)
		}
		for _, a := range dsl.Simple.Then {
			walkAction(a)
		}
		for _, a := range dsl.Simple.Else {
			walkAction(a)
		}
	case ShapeSequence:
		for _, sub := range dsl.Sequence.Rules {
			if sub.Simple != nil {
				for _, c := range sub.Simple.When {
					walkCond(c)
				}
				for _, a := range sub.Simple.Then {
					walkAction(a)
				}
				for _, a := range sub.Simple.Else {
					walkAction(a)
				}
			}
			if sub.Cond != nil {
				walkCond(sub.Cond.If)
				walkBlock(sub.Cond.Then)
				if sub.Cond.Else != nil {
					walkBlock(*sub.Cond.Else)
				}
			}
		}
	case ShapeConditional:
		walkCond(dsl.Cond.If)
		walkBlock(dsl.Cond.Then)
		if dsl.Cond.Else != nil {
			walkBlock(*dsl.Cond.Else)
		}
	}

	return found
}

// dispatch runs dsl's top-level shape and returns the outer condition
// result plus any circuit breaker signal (§4.7 step 4).
func (eng *Engine) dispatch(dsl *RulesDSL, evalr *Evaluator, exec *Executor, ctx *EvaluationContext) (bool, *circuitBreakerSignal, error) {
	switch dsl.Shape {
	case ShapeSimple:
		return eng.dispatchSimple(dsl.Simple, evalr, exec, ctx)
	case ShapeSequence:
		return eng.dispatchSequence(dsl.Sequence, evalr, exec, ctx)
	case ShapeConditional:
		return eng.dispatchConditional(dsl.Cond, exec, ctx)
	default:
		return false, nil, nil
	}
}

func (eng *Engine) dispatchSimple(shape *SimpleShape, evalr *Evaluator, exec *Executor, ctx *EvaluationContext) (bool, *circuitBreakerSignal, error) {
	result := true
	if len(shape.When) > 0 {
		r, err := evalr.EvalConditions(shape.When, ctx)
		if err != nil {
			return false, nil, err
		}
		result = r
	}

	if result {
		sig, err := exec.Run(shape.Then, ctx)
		return true, sig, err
	}
	if len(shape.Else) > 0 {
		sig, err := exec.Run(shape.Else, ctx)
		return false, sig, err
	}
	return false, nil, nil
}

func (eng *Engine) dispatchSequence(shape *SequenceShape, evalr *Evaluator, exec *Executor, ctx *EvaluationContext) (bool, *circuitBreakerSignal, error) {
	outer := false
	for _, sub := range shape.Rules {
		var subResult bool
		var sig *circuitBreakerSignal
		var err error
		switch {
		case sub.Simple != nil:
			subResult, sig, err = eng.dispatchSimple(sub.Simple, evalr, exec, ctx)
		case sub.Cond != nil:
			subResult, sig, err = eng.dispatchConditional(sub.Cond, exec, ctx)
		}
		if err != nil {
			return outer, sig, err
		}
		outer = outer || subResult
		if sig != nil {
			return outer, sig, nil
		}
	}
	return outer, nil, nil
}

func (eng *Engine) dispatchConditional(shape *ConditionalShape, exec *Executor, ctx *EvaluationContext) (bool, *circuitBreakerSignal, error) {
	result, err := exec.eval.EvalCondition(shape.If, ctx)
	if err != nil {
		return false, nil, err
	}
	if result {
		sig, err := exec.RunBlock(shape.Then, ctx)
		return true, sig, err
	}
	if shape.Else != nil {
		sig, err := exec.RunBlock(*shape.Else, ctx)
		return false, sig, err
	}
	return false, nil, nil
}

// assembleOutput starts from all computed variables (declared output names
// that were never assigned are simply absent, not materialised as null)
// and always includes conditionResult (§4.7 step 5).
func assembleOutput(dsl *RulesDSL, ctx *EvaluationContext) map[string]interface{} {
	out := ctx.Computed()
	if _, ok := out["conditionResult"]; !ok {
		out["conditionResult"] = false
	}
	return out
}
