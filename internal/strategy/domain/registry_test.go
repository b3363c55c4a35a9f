package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvaluator struct{}

func (stubEvaluator) Key() string                { return "stub" }
func (stubEvaluator) Evaluate(EvalContext) Decision { return Hold("stub") }

func stubFactory(Params, *rand.Rand) (Evaluator, error) { return stubEvaluator{}, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubFactory)

	ev, err := r.New("stub", Params{"x": "1.5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", ev.Key())

	_, err = r.New("missing", Params{}, nil)
	assert.Error(t, err)

	// 非法参数在构造时报错，不留到周期里
	_, err = r.New("stub", Params{"x": "not-a-number"}, nil)
	assert.Error(t, err)

	assert.Panics(t, func() { r.Register("stub", stubFactory) })
}

func TestParamsDecimalOr(t *testing.T) {
	p := Params{"take_pct": "8.5", "bad": "??"}

	assert.True(t, p.DecimalOr("take_pct", "5").Equal(decimal.RequireFromString("8.5")))
	assert.True(t, p.DecimalOr("missing", "5").Equal(decimal.RequireFromString("5")))
	assert.True(t, p.DecimalOr("bad", "5").Equal(decimal.RequireFromString("5")))
}
