package trigger

import (
	"log/slog"

	"github.com/musher-dev/musher/internal/domain"
)

// Spec is one raw condition/role pair as loaded from configuration.
// List order is priority order.
type Spec struct {
	Condition string `yaml:"condition"`
	Role      string `yaml:"role"`
}

// compiled is a trigger whose condition parsed successfully.
type compiled struct {
	cond Expr
	role string
	src  string
}

// Engine evaluates the ordered trigger list against an iteration
// context. First match wins.
type Engine struct {
	logger   *slog.Logger
	triggers []compiled
}

// NewEngine compiles the trigger specs. Malformed conditions fail
// closed: they are dropped here with a warning and can never crash role
// selection later.
func NewEngine(specs []Spec, logger *slog.Logger) *Engine {
	e := &Engine{logger: logger}
	for _, s := range specs {
		expr, err := Parse(s.Condition)
		if err != nil {
			logger.Warn("dropping malformed trigger",
				"condition", s.Condition, "role", s.Role, "error", err)
			continue
		}
		if s.Role == "" {
			logger.Warn("dropping trigger without role", "condition", s.Condition)
			continue
		}
		e.triggers = append(e.triggers, compiled{cond: expr, role: s.Role, src: s.Condition})
	}
	return e
}

// Len returns the number of usable triggers.
func (e *Engine) Len() int {
	return len(e.triggers)
}

// SelectRole returns the role name of the first trigger whose condition
// holds for ctx, or ("", false) when none match. Evaluation is
// deterministic: identical contexts always select the same role.
func (e *Engine) SelectRole(ctx *Context) (string, bool) {
	for _, t := range e.triggers {
		if t.cond.Eval(ctx) {
			return t.role, true
		}
	}
	return "", false
}

// roleSeparator marks where base instructions end and role content
// begins in a composed prompt.
const roleSeparator = "\n\n---\nROLE: "

// ComposePrompt returns base unchanged when role is nil, otherwise base
// followed by the role's content behind a clear separator. Pure string
// transform, no side effects.
func ComposePrompt(base string, role *domain.Role) string {
	if role == nil {
		return base
	}
	return base + roleSeparator + role.Name + "\n\n" + role.Content
}
