package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewConfigError("expected %d bound pairs, got %d", 3, 1).WithOperation("firefly.New")
	assert.Equal(t, "firefly.New: expected 3 bound pairs, got 1", err.Error())
	assert.True(t, IsConfigError(err))
	assert.False(t, IsEvaluationError(err))
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("division by zero")
	err := WrapEvaluationError(cause, "objective evaluation failed")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsEvaluationError(err))
	assert.Contains(t, err.Error(), "division by zero")

	assert.Nil(t, WrapEvaluationError(nil, "ignored"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "config", KindConfig.String())
	assert.Equal(t, "evaluation", KindEvaluation.String())
}

func TestBroadcastBounds(t *testing.T) {
	bounds := BroadcastBounds(-2, 3, 3)
	assert.Equal(t, [][2]float64{{-2, 3}, {-2, 3}, {-2, 3}}, bounds)
}
