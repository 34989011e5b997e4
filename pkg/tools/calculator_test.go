package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateValidExpressions(t *testing.T) {
	cases := map[string]string{
		"15 + 23":      "Result: 38",
		"100 * 0.8":    "Result: 80",
		"(50 - 5) / 9": "Result: 5",
		"2*(3+4)":      "Result: 14",
		"10 / 4":       "Result: 2.5",
		"-3 + 1":       "Result: -2",
	}
	for expr, want := range cases {
		require.Equal(t, want, Evaluate(expr), "expression %q", expr)
	}
}

func TestEvaluateRejectsInvalidCharacters(t *testing.T) {
	for _, expr := range []string{
		"",
		"1 + a",
		"__import__('os')",
		"1; drop",
		"len(x)",
		"1 = 1",
	} {
		require.Equal(t, invalidExpressionMsg, Evaluate(expr), "expression %q", expr)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	require.Equal(t, divisionByZeroMsg, Evaluate("5 / 0"))
	require.Equal(t, divisionByZeroMsg, Evaluate("0 / 0"))
	require.Equal(t, divisionByZeroMsg, Evaluate("1 / (2 - 2)"))
}

func TestCalculatorRun(t *testing.T) {
	tool := &CalculatorTool{}
	out, err := tool.Run(context.Background(), `{"expression": "15 + 23"}`)
	require.NoError(t, err)
	require.Equal(t, "Result: 38", out)

	out, err = tool.Run(context.Background(), `{"expression": "hello"}`)
	require.NoError(t, err)
	require.Equal(t, invalidExpressionMsg, out)

	_, err = tool.Run(context.Background(), `not json`)
	require.Error(t, err)
}
