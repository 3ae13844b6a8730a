// Package calculator provides a tool that evaluates mathematical
// expressions, including named parameters and common constants.
package calculator

import (
	"math"

	"github.com/Knetic/govaluate"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

// constants available to every expression without declaration.
var constants = map[string]any{
	"pi":    math.Pi,
	"e":     math.E,
	"phi":   math.Phi,
	"sqrt2": math.Sqrt2,
	"ln2":   math.Ln2,
	"ln10":  math.Ln10,
}

var functions = map[string]govaluate.ExpressionFunction{
	"sqrt": func(args ...any) (any, error) {
		return math.Sqrt(args[0].(float64)), nil
	},
	"abs": func(args ...any) (any, error) {
		return math.Abs(args[0].(float64)), nil
	},
	"pow": func(args ...any) (any, error) {
		return math.Pow(args[0].(float64), args[1].(float64)), nil
	},
	"log": func(args ...any) (any, error) {
		return math.Log(args[0].(float64)), nil
	},
	"sin": func(args ...any) (any, error) {
		return math.Sin(args[0].(float64)), nil
	},
	"cos": func(args ...any) (any, error) {
		return math.Cos(args[0].(float64)), nil
	},
	"round": func(args ...any) (any, error) {
		return math.Round(args[0].(float64)), nil
	},
}

type calcArgs struct {
	Expression string         `json:"expression" jsonschema:"description=Mathematical expression to evaluate, e.g. '2 + 2' or 'sqrt(x) * pi'"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"description=Named parameters referenced by the expression"`
}

// New creates the calculator tool.
func New() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"calculate",
		"Evaluate a mathematical expression. Supports arithmetic, comparison, sqrt/abs/pow/log/sin/cos/round and the constants pi and e",
		calcArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			expression, _ := args["expression"].(string)
			return Evaluate(expression, asParams(args["params"]))
		},
	)
}

func asParams(v any) map[string]any {
	params, _ := v.(map[string]any)
	return params
}

// Evaluate computes the expression with the given parameters merged over
// the built-in constants.
func Evaluate(expression string, params map[string]any) (any, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, functions)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(params)+len(constants))
	for k, v := range constants {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	return expr.Evaluate(merged)
}
