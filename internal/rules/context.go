package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvaluationContext is the single-owner, three-scope variable store for one
// evaluation. Lookup order is computed -> input -> constants. Modeled on the
// teacher's SpanContext (span_context.go): a small struct wrapping the
// backing data with cheap accessor methods, but mutable here since the
// computed scope is written during evaluation rather than lazily cached.
type EvaluationContext struct {
	input     map[string]interface{}
	constants map[string]interface{}
	computed  map[string]interface{}

	OperationID string
	StartTime   time.Time

	CircuitBreakerTriggered bool
	CircuitBreakerMessage   string

	// regexCache holds compiled patterns for this evaluation only; never
	// shared across evaluations (§9 "Regex caching").
	regexCache map[string]*regexp.Regexp
}

// NewEvaluationContext copies input (never aliases the caller's map) and
// seeds an operation id for log correlation.
func NewEvaluationContext(input map[string]interface{}, constants map[string]interface{}) *EvaluationContext {
	copiedInput := make(map[string]interface{}, len(input))
	for k, v := range input {
		copiedInput[k] = v
	}
	copiedConstants := make(map[string]interface{}, len(constants))
	for k, v := range constants {
		copiedConstants[k] = v
	}

	return &EvaluationContext{
		input:       copiedInput,
		constants:   copiedConstants,
		computed:    make(map[string]interface{}),
		OperationID: uuid.NewString(),
		StartTime:   time.Now(),
		regexCache:  make(map[string]*regexp.Regexp),
	}
}

// EvalScope identifies which of the three maps a name resolves to.
type EvalScope int

const (
	ScopeNone EvalScope = iota
	ScopeComputed
	ScopeInput
	ScopeConstant
)

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Get resolves name through computed -> input -> constants.
func (c *EvaluationContext) Get(name string) (interface{}, bool) {
	name = normalizeName(name)
	if v, ok := c.computed[name]; ok {
		return v, true
	}
	if v, ok := c.input[name]; ok {
		return v, true
	}
	if v, ok := c.constants[name]; ok {
		return v, true
	}
	return nil, false
}

// Has reports whether name resolves in any scope.
func (c *EvaluationContext) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// ScopeOf reports which scope name currently resolves to.
func (c *EvaluationContext) ScopeOf(name string) EvalScope {
	name = normalizeName(name)
	if _, ok := c.computed[name]; ok {
		return ScopeComputed
	}
	if _, ok := c.input[name]; ok {
		return ScopeInput
	}
	if _, ok := c.constants[name]; ok {
		return ScopeConstant
	}
	return ScopeNone
}

// SetComputed writes a value to the computed scope, overwriting any prior
// value under the same name.
func (c *EvaluationContext) SetComputed(name string, value interface{}) {
	c.computed[normalizeName(name)] = value
}

// SetInput writes a value to the input scope, overwriting any prior value
// under the same name.
func (c *EvaluationContext) SetInput(name string, value interface{}) {
	c.input[normalizeName(name)] = value
}

// SetConstant seeds a resolved constant value. Rules never write constants
// during evaluation; this is called only by the engine during constant
// loading.
func (c *EvaluationContext) SetConstant(name string, value interface{}) {
	c.constants[normalizeName(name)] = value
}

// DeleteComputed removes a computed binding, used to restore forEach loop
// variables to their pre-loop state.
func (c *EvaluationContext) DeleteComputed(name string) {
	delete(c.computed, normalizeName(name))
}

// Computed returns a shallow copy of the computed scope for output assembly.
func (c *EvaluationContext) Computed() map[string]interface{} {
	out := make(map[string]interface{}, len(c.computed))
	for k, v := range c.computed {
		out[k] = v
	}
	return out
}

// CompiledRegex returns a cached compiled pattern, compiling and caching it
// on first use within this evaluation.
func (c *EvaluationContext) CompiledRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.regexCache[pattern] = re
	return re, nil
}
