package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastlens/roastlens/internal/types"
)

func TestParseWeight(t *testing.T) {
	cases := []struct {
		label string
		grams int
		conf  float64
	}{
		{"250g", 250, 0.9},
		{"250 grams", 250, 0.9},
		{"0.25kg", 250, 0.9},
		{"1kg bag", 1000, 0.9},
		{"500 pack", 500, 0.7},
		{"half kilo", 500, 0.8},
		{"1 lb", 454, 0.8},
		{"250", 250, 0.6},
		{"large", 0, 0},
		{"", 0, 0},
	}
	for _, tc := range cases {
		grams, conf := ParseWeight(tc.label)
		assert.Equal(t, tc.grams, grams, "label %q", tc.label)
		assert.InDelta(t, tc.conf, conf, 0.001, "label %q", tc.label)
	}
}

func TestReconcileBuckets(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	Reconcile(c, []types.VariantPrice{
		{Label: "250g", Price: 450},
		{Label: "1kg", Price: 1600},
		{Label: "240g sample", Price: 440}, // same bucket, smaller weight loses
	})

	assert.InDelta(t, 450.0, c.Prices[250], 0.001)
	assert.InDelta(t, 1600.0, c.Prices[1000], 0.001)
	assert.InDelta(t, 0.9, c.Conf("price_250g"), 0.001)
}

func TestReconcileMultipack(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	Reconcile(c, []types.VariantPrice{
		{Label: "Pack of beans, 2 x 250g", Price: 900},
	})

	require.True(t, c.IsMultipack)
	assert.Equal(t, 2, c.PackCount)
	// Pack price divided by count, bucketed at the unit weight.
	assert.InDelta(t, 450.0, c.Prices[250], 0.001)
	assert.InDelta(t, 0.9, c.Conf("price_250g"), 0.001)
}

func TestReconcileFallbackAssumes250(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	Reconcile(c, []types.VariantPrice{
		{Label: "Standard", Price: 500},
	})

	assert.InDelta(t, 500.0, c.Prices[250], 0.001)
	assert.InDelta(t, 0.3, c.Conf("price_250g"), 0.001)
}

func TestValidateFlagsInconsistency(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	// 500g at 2.0/g vs 250g at 1.0/g: larger size more expensive per gram.
	c.Prices = map[int]float64{250: 250, 500: 1000}
	Validate(c)

	require.Len(t, c.Warnings, 1)
	assert.Equal(t, types.WarnPriceInconsistency, c.Warnings[0].Kind)
	assert.Equal(t, 500, c.Warnings[0].Grams)
	// Flagged, never auto-corrected.
	assert.InDelta(t, 1000.0, c.Prices[500], 0.001)
}

func TestValidateFlagsBulkDiscount(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	// 1kg at 0.5/g against 250g at 1.0/g: below the 70% floor.
	c.Prices = map[int]float64{250: 250, 1000: 500}
	Validate(c)

	require.Len(t, c.Warnings, 1)
	assert.Equal(t, types.WarnBulkDiscountAnomaly, c.Warnings[0].Kind)
}

func TestValidateAcceptsOrdinaryLadder(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	c.Prices = map[int]float64{250: 450, 500: 850, 1000: 1600}
	Validate(c)
	assert.Empty(t, c.Warnings)
}

func TestDerive250(t *testing.T) {
	cases := []struct {
		name    string
		source  int
		price   float64
		want    float64
		penalty float64
	}{
		{"from 200g", 200, 400, 500, 0.9},
		{"from 500g", 500, 900, 450, 0.8},
		{"from 100g", 100, 200, 500, 0.7},
		{"from 1kg", 1000, 1600, 400, 0.7},
		{"from 2kg", 2000, 3200, 400, 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := types.NewProductCandidate("Test", "")
			c.Prices = map[int]float64{tc.source: tc.price}
			c.SetConf(FieldName(tc.source), 0.9)

			Derive250(c)
			assert.InDelta(t, tc.want, c.Prices[250], 0.01)
			assert.InDelta(t, 0.9*tc.penalty, c.Conf("price_250g"), 0.001)
			// Derived confidence is strictly below the source's.
			assert.Less(t, c.Conf("price_250g"), c.Conf(FieldName(tc.source)))
		})
	}
}

func TestDerive250PrefersNearestClass(t *testing.T) {
	c := types.NewProductCandidate("Test", "")
	c.Prices = map[int]float64{200: 400, 1000: 1600}
	c.SetConf("price_200g", 0.9)
	c.SetConf("price_1kg", 0.9)

	Derive250(c)
	// 200g rule wins over 1kg.
	assert.InDelta(t, 500.0, c.Prices[250], 0.001)
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "price_250g", FieldName(250))
	assert.Equal(t, "price_1kg", FieldName(1000))
	assert.Equal(t, "price_2kg", FieldName(2000))
}
