package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the rule engine, adapted from the teacher's
// rule/span metrics registry to the decisioning domain: rule compiles,
// evaluations, circuit breaker trips, and validator issues.

var (
	RulesCompiledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_rules_compiled_total",
			Help: "Total number of rule sources parsed into an AST",
		},
		[]string{"status"}, // status: success|error
	)

	RuleParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ruleengine_rule_parse_duration_seconds",
			Help:    "Time taken to lex, parse, and assemble a rule source into an AST",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 18),
		},
	)

	ASTCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_ast_cache_total",
			Help: "AST cache lookups by outcome",
		},
		[]string{"outcome"}, // outcome: hit|miss
	)

	RuleEvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ruleengine_rule_evaluation_duration_seconds",
			Help:    "Time taken to evaluate a rule against one input",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 18),
		},
		[]string{"rule_name", "result"}, // result: success|circuit_broken|error
	)

	RuleEvaluationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_rule_evaluation_total",
			Help: "Total number of rule evaluations",
		},
		[]string{"rule_name", "result"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_circuit_breaker_trips_total",
			Help: "Total number of circuit_breaker actions triggered during evaluation",
		},
		[]string{"rule_name"},
	)

	ConstantsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_constants_loaded_total",
			Help: "Total number of constant lookups performed during constant auto-discovery",
		},
		[]string{"outcome"}, // outcome: resolved|default|missing
	)

	ValidatorIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_validator_issues_total",
			Help: "Total number of validator issues emitted, by severity",
		},
		[]string{"severity"}, // severity: critical|error|warning|info
	)

	ValidatorQualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ruleengine_validator_quality_score",
			Help:    "Distribution of computed quality scores across validated rules",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	LoopIterationsExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_loop_iterations_exhausted_total",
			Help: "Total number of while/do-while/forEach loops that hit the iteration cap",
		},
		[]string{"rule_name"},
	)
)
