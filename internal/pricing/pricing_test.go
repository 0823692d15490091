package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(policy Policy) Config {
	return Config{
		Policy:       policy,
		HalfHourRate: 30000,
		HourRate:     50000,
		GraceMinutes: 10,
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Policy: "hourly", HalfHourRate: 1, HourRate: 2})
	assert.Error(t, err)

	_, err = New(Config{Policy: PolicyGraceTier, HalfHourRate: 0, HourRate: 2})
	assert.Error(t, err)

	_, err = New(Config{Policy: PolicyGraceTier, HalfHourRate: 5, HourRate: 2})
	assert.Error(t, err)

	_, err = New(Config{Policy: PolicyProrated, HalfHourRate: 1, HourRate: 2, GraceMinutes: -1})
	assert.Error(t, err)
}

func TestGraceTierBoundaries(t *testing.T) {
	engine, err := New(defaultConfig(PolicyGraceTier))
	require.NoError(t, err)

	cases := []struct {
		minutes int
		want    int64
	}{
		{0, 0},
		{-5, 0},
		{1, 30000},
		{30, 30000},
		{40, 30000},  // 30 min tier plus 10 min grace
		{41, 50000},  // first minute past the grace window
		{45, 50000},  // the checkout scenario from the kiosk flow
		{60, 50000},
		{70, 50000},  // hour tier plus grace
		{71, 80000},  // one extra half-hour block
		{93, 80000},  // 23 min overflow still one block
		{100, 80000}, // exactly one block (70+30)
		{101, 110000},
		{131, 140000}, // 61 min overflow, three blocks
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, engine.Price(tc.minutes), "minutes=%d", tc.minutes)
	}
}

func TestProratedBoundaries(t *testing.T) {
	engine, err := New(defaultConfig(PolicyProrated))
	require.NoError(t, err)

	cases := []struct {
		minutes int
		want    int64
	}{
		{0, 0},
		{-1, 0},
		{15, 15000},
		{29, 29000}, // ceil(29/30 * 30000)
		{30, 30000},
		{45, 40000}, // 30000 + ceil(15/30 * 20000)
		{59, 49334},
		{60, 50000},
		{90, 75000},  // 50000 + ceil(30/60 * 50000)
		{120, 100000},
		{121, 100834},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, engine.Price(tc.minutes), "minutes=%d", tc.minutes)
	}
}

func TestPriceIsMonotonic(t *testing.T) {
	for _, policy := range []Policy{PolicyGraceTier, PolicyProrated} {
		engine, err := New(defaultConfig(policy))
		require.NoError(t, err)

		prev := engine.Price(0)
		for d := 1; d <= 600; d++ {
			cur := engine.Price(d)
			assert.GreaterOrEqual(t, cur, prev, "policy=%s minutes=%d", policy, d)
			prev = cur
		}
	}
}

func TestZeroDurationIsFree(t *testing.T) {
	for _, policy := range []Policy{PolicyGraceTier, PolicyProrated} {
		engine, err := New(defaultConfig(policy))
		require.NoError(t, err)
		assert.Zero(t, engine.Price(0), "policy=%s", policy)
	}
}
