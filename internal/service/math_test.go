package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimalFloor(t *testing.T) {
	assert.Equal(t, 1.23, DecimalFloor(1.239, 2))
	assert.Equal(t, -1.24, DecimalFloor(-1.231, 2))
	assert.Equal(t, 100.0, DecimalFloor(100, 2))
	// 二进制浮点的小数都有精确的 decimal 表达，0.1+0.2 不会误伤
	assert.Equal(t, 0.3, DecimalFloor(0.30000000000000004, 2))
}

func TestDecimalCeil(t *testing.T) {
	assert.Equal(t, 1.24, DecimalCeil(1.231, 2))
	assert.Equal(t, -1.23, DecimalCeil(-1.239, 2))
	assert.Equal(t, 0.001, DecimalCeil(0.0001, 3))
}

func TestDecimalRound(t *testing.T) {
	assert.Equal(t, 1.24, DecimalRound(1.235, 2))
	assert.Equal(t, 1.23, DecimalRound(1.2349, 2))
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0.5, Normalize(0, -1, 1, 0, 1), 1e-9)
	assert.InDelta(t, 0, Normalize(-5, -1, 1, 0, 1), 1e-9)
	assert.InDelta(t, 1, Normalize(5, -1, 1, 0, 1), 1e-9)
	assert.InDelta(t, 0, Normalize(3, 2, 2, 0, 1), 1e-9)
}

func TestIntervalHelpers(t *testing.T) {
	d, err := ParseIntervalDuration("15m")
	assert.NoError(t, err)
	assert.Equal(t, "15m", FormatInterval(d))

	d, err = ParseIntervalDuration("4h")
	assert.NoError(t, err)
	assert.Equal(t, "4h", FormatInterval(d))

	_, err = ParseIntervalDuration("x")
	assert.Error(t, err)
	_, err = ParseIntervalDuration("15w")
	assert.Error(t, err)
}
