// Package trigger selects a behavioral role for the next agent
// invocation by evaluating declarative conditions against the current
// iteration context.
package trigger

import "strings"

// Context is the ephemeral iteration context conditions evaluate
// against. It is rebuilt from scratch every iteration.
type Context struct {
	TaskID              string
	TaskTitle           string
	IterationsSinceRole map[string]int // iterations since each role was last applied
	BranchCommits       int            // commits on the task branch since creation
	LastIterationFailed bool
	ReadyToComplete     bool // the agent marked the task complete this pass
}

// sinceRole returns the iterations since role was last applied. A role
// that was never applied counts as "infinitely long ago".
func (c *Context) sinceRole(role string) int {
	if c.IterationsSinceRole == nil {
		return neverApplied
	}
	n, ok := c.IterationsSinceRole[role]
	if !ok {
		return neverApplied
	}
	return n
}

const neverApplied = int(^uint(0) >> 1)

// Expr is a parsed condition. Evaluation is a total function over the
// context: a compiled expression cannot fail at evaluation time.
type Expr interface {
	Eval(c *Context) bool
}

type orExpr struct {
	left, right Expr
}

func (e *orExpr) Eval(c *Context) bool {
	return e.left.Eval(c) || e.right.Eval(c)
}

type andExpr struct {
	left, right Expr
}

func (e *andExpr) Eval(c *Context) bool {
	return e.left.Eval(c) && e.right.Eval(c)
}

type notExpr struct {
	inner Expr
}

func (e *notExpr) Eval(c *Context) bool {
	return !e.inner.Eval(c)
}

// cmpOp is a numeric comparison operator.
type cmpOp int

const (
	opGE cmpOp = iota
	opLT
	opEQ
)

// cmpExpr compares a numeric context field against a literal.
type cmpExpr struct {
	role  string // set for iterations_since_role(...)
	field string
	op    cmpOp
	value int
}

func (e *cmpExpr) Eval(c *Context) bool {
	var n int
	switch e.field {
	case fieldBranchCommits:
		n = c.BranchCommits
	case fieldSinceRole:
		n = c.sinceRole(e.role)
	}
	switch e.op {
	case opGE:
		return n >= e.value
	case opLT:
		return n < e.value
	default:
		return n == e.value
	}
}

// flagExpr reads a boolean context flag.
type flagExpr struct {
	name string
}

func (e *flagExpr) Eval(c *Context) bool {
	switch e.name {
	case fieldLastFailed:
		return c.LastIterationFailed
	default:
		return c.ReadyToComplete
	}
}

// containsExpr tests substring containment on the task title.
type containsExpr struct {
	needle string
}

func (e *containsExpr) Eval(c *Context) bool {
	return strings.Contains(c.TaskTitle, e.needle)
}
