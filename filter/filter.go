// Package filter compiles expr expressions used to select torrents, both
// for the list command and for the protection rule that exempts torrents
// from the space policy.
//
// Expressions see the fields of a torrent directly (Name, State, Category,
// Tags, Progress, AmountLeft, Ratio, Tracker, ...) plus a small set of
// helpers:
//
//	hasTag("keep")
//	matches("tracker-a\\.example", Tracker)
//	Category == "permaseed" or daysSince(AddedOn) > 30
package filter

import (
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

// Filter is a compiled torrent filter expression.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into a Filter.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	// Compile against the helper environment for validation; torrent fields
	// are injected at evaluation time.
	program, err := expr.Compile(expression,
		expr.Env(helperFunctions()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// Evaluate runs the filter against a torrent.
func (f *Filter) Evaluate(t *qbittorrent.TorrentInfo) (bool, error) {
	result, err := expr.Run(f.program, runtimeEnvironment(t))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Torrent:    t.Name,
			Reason:     "failed to evaluate expression",
			Err:        err,
		}
	}

	// AsBool() during compilation guarantees the assertion.
	return result.(bool), nil
}

// Expression returns the original expression.
func (f *Filter) Expression() string {
	return f.expression
}

// Predicate adapts the filter to a plain predicate. Evaluation errors count
// as no match.
func (f *Filter) Predicate() func(*qbittorrent.TorrentInfo) bool {
	return func(t *qbittorrent.TorrentInfo) bool {
		ok, err := f.Evaluate(t)
		return err == nil && ok
	}
}

// helperFunctions returns the helpers available during compilation.
func helperFunctions() map[string]any {
	env := make(map[string]any, 16)
	addHelperFunctions(env)
	return env
}

func addHelperFunctions(env map[string]any) {
	env["daysSince"] = func(t time.Time) float64 {
		return time.Since(t).Hours() / 24
	}
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["matches"] = func(pattern, str string) bool {
		matched, err := regexp.MatchString(pattern, str)
		return err == nil && matched
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

// runtimeEnvironment builds the evaluation environment for a torrent.
func runtimeEnvironment(t *qbittorrent.TorrentInfo) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env)

	env["Hash"] = t.Hash
	env["Name"] = t.Name
	env["State"] = t.State
	env["Category"] = t.Category
	env["Tags"] = t.Tags
	env["Tracker"] = t.Tracker
	env["SavePath"] = t.SavePath
	env["Size"] = t.Size
	env["AmountLeft"] = t.AmountLeft
	env["Downloaded"] = t.Downloaded
	env["Progress"] = t.Progress
	env["Ratio"] = t.Ratio
	env["AddedOn"] = t.AddedOn
	env["CompletionOn"] = t.CompletionOn
	env["ForceStart"] = t.ForceStart
	env["Paused"] = t.IsPaused()
	env["Incomplete"] = t.IsIncomplete()

	env["hasTag"] = t.HasTag

	return env
}
