package tools

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"github.com/Knetic/govaluate"
)

// User-facing calculator messages. These are tool results, never errors:
// the model reads them and relays the problem to the user.
const (
	invalidExpressionMsg = "Invalid expression. Only digits, + - * / ( ) . and spaces are supported."
	divisionByZeroMsg    = "Calculation error: division by zero."
)

var validExpression = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)

// CalculatorTool evaluates basic arithmetic expressions.
type CalculatorTool struct{}

// Name returns the name of the tool
func (t *CalculatorTool) Name() string { return "calculator" }

// Description returns the description of the tool
func (t *CalculatorTool) Description() string {
	return `Evaluates a basic arithmetic expression such as "15 + 23" or "100 * 0.8". Supports addition, subtraction, multiplication, division and parentheses.`
}

// Parameters returns the argument schema
func (t *CalculatorTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {
				"type": "string",
				"description": "Arithmetic expression, e.g. \"(50 - 5) / 9\""
			}
		},
		"required": ["expression"]
	}`)
}

// Run runs the tool
func (t *CalculatorTool) Run(_ context.Context, args string) (string, error) {
	var toolArgs struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}
	return Evaluate(toolArgs.Expression), nil
}

// Evaluate validates the expression against the character allow-list and
// computes it. The result is always a user-facing string: bad input and
// division by zero come back as messages, never as faults.
func Evaluate(expression string) string {
	if expression == "" || !validExpression.MatchString(expression) {
		return invalidExpressionMsg
	}

	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return invalidExpressionMsg
	}
	value, err := expr.Evaluate(nil)
	if err != nil {
		return invalidExpressionMsg
	}
	result, ok := value.(float64)
	if !ok {
		return invalidExpressionMsg
	}
	// govaluate divides in float64, so x/0 surfaces as Inf (or NaN for 0/0)
	// rather than an error.
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return divisionByZeroMsg
	}
	return "Result: " + strconv.FormatFloat(result, 'f', -1, 64)
}
