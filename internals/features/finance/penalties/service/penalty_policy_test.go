package service

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/penalties/model"
)

func i64(v int64) *int64 { return &v }

func pct(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name string
		fee  int64
		days int
		cfg  model.PenaltyConfig
		want int64
	}{
		{
			name: "daily after grace",
			fee:  15000, days: 10,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeDaily, PenaltyConfigAmount: i64(50), PenaltyConfigGracePeriodDays: 3},
			want: 350,
		},
		{
			name: "percentage of total",
			fee:  15000, days: 10,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypePercentage, PenaltyConfigPercentage: pct("2"), PenaltyConfigGracePeriodDays: 3},
			want: 300,
		},
		{
			name: "fixed clamped to max",
			fee:  15000, days: 1,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(500), PenaltyConfigMaxAmount: i64(400)},
			want: 400,
		},
		{
			name: "fixed ignores day count",
			fee:  15000, days: 90,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(500)},
			want: 500,
		},
		{
			name: "daily clamped to max",
			fee:  15000, days: 100,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeDaily, PenaltyConfigAmount: i64(50), PenaltyConfigMaxAmount: i64(1000)},
			want: 1000,
		},
		{
			name: "within grace period",
			fee:  15000, days: 3,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeDaily, PenaltyConfigAmount: i64(50), PenaltyConfigGracePeriodDays: 3},
			want: 0,
		},
		{
			name: "not overdue",
			fee:  15000, days: 0,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(500)},
			want: 0,
		},
		{
			name: "rounds half away from zero",
			fee:  5, days: 2,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypePercentage, PenaltyConfigPercentage: pct("10")},
			want: 1,
		},
		{
			name: "rounds down below half",
			fee:  1001, days: 2,
			cfg:  model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypePercentage, PenaltyConfigPercentage: pct("1.5")},
			want: 15,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(tc.fee, tc.days, tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateRejectsIncompleteConfig(t *testing.T) {
	cases := map[string]model.PenaltyConfig{
		"unknown type":         {PenaltyConfigType: "weekly", PenaltyConfigAmount: i64(1)},
		"daily without amount": {PenaltyConfigType: model.PenaltyTypeDaily},
		"fixed without amount": {PenaltyConfigType: model.PenaltyTypeFixed},
		"percentage missing":   {PenaltyConfigType: model.PenaltyTypePercentage},
		"percentage above 100": {PenaltyConfigType: model.PenaltyTypePercentage, PenaltyConfigPercentage: pct("120")},
		"negative grace":       {PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(1), PenaltyConfigGracePeriodDays: -1},
		"negative max":         {PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(1), PenaltyConfigMaxAmount: i64(-5)},
		"negative amount":      {PenaltyConfigType: model.PenaltyTypeDaily, PenaltyConfigAmount: i64(-5)},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Calculate(1000, 10, cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, finerr.ErrConfiguration), err.Error())
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	cfg := model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypePercentage, PenaltyConfigPercentage: pct("2.5")}
	first, err := Calculate(12345, 7, cfg)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Calculate(12345, 7, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
