package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neat-trading-bot/internal/model"
)

func syntheticCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		base := 100 + 10*math.Sin(float64(i)/10)
		out[i] = model.Candle{
			Open:   base,
			High:   base + 1,
			Low:    base - 1,
			Close:  base + 0.5*math.Cos(float64(i)/7),
			Volume: 1000 + 100*math.Sin(float64(i)/5),
		}
	}
	return out
}

func TestBuildAllColumns(t *testing.T) {
	candles := syntheticCandles(200)
	v := Build(DefaultConfig(), candles)

	assert.Equal(t, 10, v.Width())

	// 预热之后每个分量都在 [0,1] 且有限
	for i := MinCandles; i < len(candles); i++ {
		row := v.Row(i)
		require.Len(t, row, 10)
		for j, x := range row {
			assert.Falsef(t, math.IsNaN(x), "row %d col %d is NaN", i, j)
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 1.0)
		}
	}
}

func TestBuildRespectsToggles(t *testing.T) {
	candles := syntheticCandles(200)
	v := Build(Config{RSI: true, PriceChange: true}, candles)
	assert.Equal(t, 2, v.Width())
}

func TestNormalizeClamps(t *testing.T) {
	assert.Equal(t, 0.0, normalize(-5, -1, 1))
	assert.Equal(t, 1.0, normalize(5, -1, 1))
	assert.InDelta(t, 0.5, normalize(0, -1, 1), 1e-9)
	assert.Equal(t, 0.0, normalize(3, 2, 2))
}
