package rules_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireflyframework/ruleenginectl/internal/rulecache"
	"github.com/fireflyframework/ruleenginectl/internal/rules"
	"github.com/fireflyframework/ruleenginectl/internal/yamlrule"
)

// stubStore is a fixed in-memory ConstantStore for engine tests that need
// to control which constants resolve without standing up conststore.DiskStore.
type stubStore struct {
	values map[string]interface{}
}

func (s *stubStore) GetConstantsByCodes(_ context.Context, codes []string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, code := range codes {
		if v, ok := s.values[code]; ok {
			out[code] = v
		}
	}
	return out, nil
}

func newTestEngine(store rules.ConstantStore) *rules.Engine {
	return rules.NewEngine(yamlrule.Parse, rulecache.New(0), store, 0)
}

func TestEngine_BasicApproval(t *testing.T) {
	source := `
name: Basic Approval
inputs: [creditScore, annualIncome]
when:
  - creditScore at_least 650
  - annualIncome greater_than 40000
then:
  - set decision to "APPROVED"
else:
  - set decision to "DECLINED"
`
	eng := newTestEngine(&stubStore{})
	result := eng.Evaluate(context.Background(), source, map[string]interface{}{
		"creditScore":  720,
		"annualIncome": 50000,
	})

	require.True(t, result.Success)
	assert.True(t, result.ConditionResult)
	assert.Equal(t, "APPROVED", result.OutputData["decision"])
	assert.Equal(t, true, result.OutputData["conditionResult"])
}

func TestEngine_BetweenWithConstant(t *testing.T) {
	source := `
name: Age Window
inputs: [age]
constants:
  - code: MIN_AGE
when:
  - age between MIN_AGE and 65
then:
  - set eligible to true
else:
  - set eligible to false
`
	eng := newTestEngine(&stubStore{values: map[string]interface{}{"MIN_AGE": 18}})

	below := eng.Evaluate(context.Background(), source, map[string]interface{}{"age": 17})
	require.True(t, below.Success)
	assert.False(t, below.ConditionResult)
	assert.Equal(t, false, below.OutputData["eligible"])

	within := eng.Evaluate(context.Background(), source, map[string]interface{}{"age": 30})
	require.True(t, within.Success)
	assert.True(t, within.ConditionResult)
	assert.Equal(t, true, within.OutputData["eligible"])
}

func TestEngine_ForEachAccumulation(t *testing.T) {
	source := `
name: Sum Items
inputs: [items]
then:
  - set total to 0
  - "forEach x in items: calculate total as total + x"
`
	eng := newTestEngine(&stubStore{})
	result := eng.Evaluate(context.Background(), source, map[string]interface{}{
		"items": []interface{}{10, 20, 30},
	})

	require.True(t, result.Success)
	total, ok := result.OutputData["total"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, total.Equal(decimal.NewFromInt(60)))
}

// TestEngine_JSONDecodedInput drives Evaluate with input decoded the way
// the CLI and every other real caller produces it: json.Unmarshal into
// map[string]interface{}, which yields float64 for every number rather
// than the int/[]interface{}{int...} literals the other tests construct
// by hand. Numeric promotion (§4.5) and decimal fidelity (§8) must hold
// across that boundary, not just against Go-literal test fixtures.
func TestEngine_JSONDecodedInput(t *testing.T) {
	eng := newTestEngine(&stubStore{})

	t.Run("basic approval", func(t *testing.T) {
		source := `
name: Basic Approval
inputs: [creditScore, annualIncome]
when:
  - creditScore at_least 650
  - annualIncome greater_than 40000
then:
  - set decision to "APPROVED"
else:
  - set decision to "DECLINED"
`
		var input map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(`{"creditScore": 720, "annualIncome": 50000}`), &input))

		result := eng.Evaluate(context.Background(), source, input)

		require.True(t, result.Success)
		assert.True(t, result.ConditionResult)
		assert.Equal(t, "APPROVED", result.OutputData["decision"])
	})

	t.Run("forEach accumulation", func(t *testing.T) {
		source := `
name: Sum Items
inputs: [items]
then:
  - set total to 0
  - "forEach x in items: calculate total as total + x"
`
		var input map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(`{"items": [10, 20, 30]}`), &input))

		result := eng.Evaluate(context.Background(), source, input)

		require.True(t, result.Success)
		total, ok := result.OutputData["total"].(decimal.Decimal)
		require.True(t, ok)
		assert.True(t, total.Equal(decimal.NewFromInt(60)), "expected 60, got %s", total)
	})
}

func TestEngine_CircuitBreaker(t *testing.T) {
	source := `
name: Risk Gate
inputs: []
then:
  - set a to 1
  - circuit_breaker "risk_too_high"
  - set b to 2
`
	eng := newTestEngine(&stubStore{})
	result := eng.Evaluate(context.Background(), source, map[string]interface{}{})

	require.True(t, result.Success)
	assert.True(t, result.CircuitBreakerTriggered)
	assert.Equal(t, "risk_too_high", result.CircuitBreakerMessage)
	a, ok := result.OutputData["a"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, a.Equal(decimal.NewFromInt(1)))
	_, sawB := result.OutputData["b"]
	assert.False(t, sawB)
}

func TestEngine_DeadlineExceededStopsLoop(t *testing.T) {
	source := `
name: Endless Counter
inputs: []
then:
  - set i to 0
  - "while i less_than 1000000 do: calculate i as i + 1"
`
	eng := newTestEngine(&stubStore{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	result := eng.Evaluate(ctx, source, map[string]interface{}{})

	require.False(t, result.Success)
	assert.Equal(t, "timeout", result.Error)
}

func TestEngine_MissingConstant(t *testing.T) {
	source := `
name: Loan Limit
inputs: [requested]
when:
  - requested at_most MAX_LOAN
then:
  - set approved to true
`
	eng := newTestEngine(&stubStore{})
	result := eng.Evaluate(context.Background(), source, map[string]interface{}{"requested": 1000})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "MAX_LOAN")
}
