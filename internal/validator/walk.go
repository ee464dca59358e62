package validator

import "github.com/fireflyframework/ruleenginectl/internal/rules"

// varRef is one Variable reference encountered while walking the AST.
type varRef struct {
	name string
	loc  rules.SourceLocation
}

// assignTarget is one `set/calculate/run/add/.../append` write target.
type assignTarget struct {
	name string
	loc  rules.SourceLocation
}

// collected is the result of one full walk of a RulesDSL, shared by the
// dependency, logic, and performance passes so the AST is traversed once.
type collected struct {
	reads           []varRef
	writes          []assignTarget
	conditions      []rules.Condition // every condition node, including nested ones
	conditionGroups [][]rules.Condition // each when[]/if's top-level operand list, for contradiction checks
	actionCount     int
	conditionCount  int
	exprStrings     map[string]int // String() -> occurrence count, for repeated-subexpression detection
}

func newCollected() *collected {
	return &collected{exprStrings: map[string]int{}}
}

func collect(dsl *rules.RulesDSL) *collected {
	c := newCollected()
	if dsl == nil {
		return c
	}
	switch dsl.Shape {
	case rules.ShapeSimple:
		c.walkSimple(dsl.Simple)
	case rules.ShapeSequence:
		for _, sub := range dsl.Sequence.Rules {
			if sub.Simple != nil {
				c.walkSimple(sub.Simple)
			}
			if sub.Cond != nil {
				c.walkConditional(sub.Cond)
			}
		}
	case rules.ShapeConditional:
		c.walkConditional(dsl.Cond)
	}
	return c
}

func (c *collected) walkSimple(s *rules.SimpleShape) {
	if len(s.When) > 0 {
		c.conditionGroups = append(c.conditionGroups, s.When)
	}
	for _, cond := range s.When {
		c.walkCondition(cond)
	}
	for _, a := range s.Then {
		c.walkAction(a)
	}
	for _, a := range s.Else {
		c.walkAction(a)
	}
}

func (c *collected) walkConditional(shape *rules.ConditionalShape) {
	c.walkCondition(shape.If)
	c.walkBlock(shape.Then)
	if shape.Else != nil {
		c.walkBlock(*shape.Else)
	}
}

func (c *collected) walkBlock(b rules.ActionBlock) {
	for _, a := range b.Actions {
		c.walkAction(a)
	}
	if b.Nested != nil {
		c.walkAction(b.Nested)
	}
}

func (c *collected) walkCondition(cond rules.Condition) {
	if cond == nil {
		return
	}
	c.conditionCount++
	c.conditions = append(c.conditions, cond)
	switch n := cond.(type) {
	case *rules.ComparisonCondition:
		c.walkExpr(n.Left)
		c.walkExpr(n.Right)
		c.walkExpr(n.RangeEnd)
	case *rules.LogicalCondition:
		if n.Op == rules.LogAnd {
			c.conditionGroups = append(c.conditionGroups, n.Operands)
		}
		for _, op := range n.Operands {
			c.walkCondition(op)
		}
	case *rules.ExpressionCondition:
		c.walkExpr(n.Expression)
	}
}

func (c *collected) walkExpr(e rules.Expr) {
	if e == nil {
		return
	}
	c.exprStrings[e.String()]++
	switch n := e.(type) {
	case *rules.VariableExpr:
		c.reads = append(c.reads, varRef{name: n.Name, loc: n.Location()})
		c.walkExpr(n.Index)
	case *rules.UnaryExpr:
		c.walkExpr(n.Operand)
	case *rules.BinaryExpr:
		c.walkExpr(n.Left)
		c.walkExpr(n.Right)
	case *rules.ArithmeticExpr:
		for _, op := range n.Operands {
			c.walkExpr(op)
		}
	case *rules.FunctionCallExpr:
		for _, a := range n.Args {
			c.walkExpr(a)
		}
	case *rules.JSONPathExpr:
		c.walkExpr(n.Source)
		c.walkExpr(n.Path)
	case *rules.RestCallExpr:
		c.walkExpr(n.URL)
		c.walkExpr(n.Body)
		c.walkExpr(n.Headers)
		c.walkExpr(n.Timeout)
	case *rules.LiteralExpr:
		if list, ok := n.Value.([]rules.Expr); ok {
			for _, item := range list {
				c.walkExpr(item)
			}
		}
	}
}

func (c *collected) walkAction(a rules.Action) {
	if a == nil {
		return
	}
	c.actionCount++
	switch n := a.(type) {
	case *rules.AssignmentAction:
		c.writes = append(c.writes, assignTarget{name: n.Target, loc: n.Location()})
		c.walkExpr(n.Value)
	case *rules.CalculateAction:
		c.writes = append(c.writes, assignTarget{name: n.Target, loc: n.Location()})
		c.walkExpr(n.Value)
	case *rules.RunAction:
		c.writes = append(c.writes, assignTarget{name: n.Target, loc: n.Location()})
		c.walkExpr(n.Value)
	case *rules.ArithmeticAction:
		c.reads = append(c.reads, varRef{name: n.Target, loc: n.Location()})
		c.writes = append(c.writes, assignTarget{name: n.Target, loc: n.Location()})
		c.walkExpr(n.Operand)
	case *rules.ListAction:
		c.reads = append(c.reads, varRef{name: n.Target, loc: n.Location()})
		c.writes = append(c.writes, assignTarget{name: n.Target, loc: n.Location()})
		c.walkExpr(n.Value)
	case *rules.FunctionCallAction:
		c.walkExpr(n.Call)
	case *rules.ConditionalAction:
		c.walkCondition(n.Cond)
		c.walkBlock(n.Then)
		if n.Else != nil {
			c.walkBlock(*n.Else)
		}
	case *rules.ForEachAction:
		c.walkExpr(n.ListExpr)
		c.writes = append(c.writes, assignTarget{name: n.Var, loc: n.Location()})
		if n.IndexVar != "" {
			c.writes = append(c.writes, assignTarget{name: n.IndexVar, loc: n.Location()})
		}
		for _, body := range n.Body {
			c.walkAction(body)
		}
	case *rules.WhileAction:
		c.walkCondition(n.Cond)
		for _, body := range n.Body {
			c.walkAction(body)
		}
	case *rules.DoWhileAction:
		for _, body := range n.Body {
			c.walkAction(body)
		}
		c.walkCondition(n.Cond)
	case *rules.CircuitBreakerAction:
		c.walkExpr(n.Message)
		c.walkExpr(n.Code)
	}
}
