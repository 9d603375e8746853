package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastlens/roastlens/internal/types"
)

func TestExtractAcidityWaterfall(t *testing.T) {
	acidity, conf := ExtractAcidity("a dull cup", nil, map[string]any{"acidity": "Medium"})
	assert.Equal(t, "medium", acidity)
	assert.InDelta(t, 0.95, conf, 0.001)

	acidity, conf = ExtractAcidity("", []string{"Acidity - Low"}, nil)
	assert.Equal(t, "low", acidity)
	assert.InDelta(t, 0.9, conf, 0.001)

	acidity, conf = ExtractAcidity("the acidity is bright and juicy", nil, nil)
	assert.Equal(t, "bright", acidity)
	assert.InDelta(t, 0.8, conf, 0.001)

	// Bare cupping word with no acidity context scores low.
	acidity, conf = ExtractAcidity("a crisp morning cup", nil, nil)
	assert.Equal(t, "crisp", acidity)
	assert.InDelta(t, 0.6, conf, 0.001)

	acidity, conf = ExtractAcidity("just coffee", nil, nil)
	assert.Empty(t, acidity)
	assert.Zero(t, conf)
}

func TestExtractSweetnessBitternessInversion(t *testing.T) {
	sweetness, conf := ExtractSweetness("", []string{"Low Bitterness"}, nil)
	assert.Equal(t, "high", sweetness)
	assert.InDelta(t, 0.7, conf, 0.001)

	sweetness, conf = ExtractSweetness("", []string{"High Bitterness"}, nil)
	assert.Equal(t, "low", sweetness)
	assert.InDelta(t, 0.7, conf, 0.001)
}

func TestExtractSweetnessTextAndKeywords(t *testing.T) {
	sweetness, conf := ExtractSweetness("expect high sweetness in the cup", nil, nil)
	assert.Equal(t, "high", sweetness)
	assert.InDelta(t, 0.8, conf, 0.001)

	// Sugary flavor language implies a sweet cup.
	sweetness, conf = ExtractSweetness("toffee and roasted almonds", nil, nil)
	assert.Equal(t, "high", sweetness)
	assert.InDelta(t, 0.7, conf, 0.001)
}

func TestExtractBodyWaterfall(t *testing.T) {
	body, conf := ExtractBody("", []string{"Full Body"}, nil)
	assert.Equal(t, "full", body)
	assert.InDelta(t, 0.9, conf, 0.001)

	// heavy and syrupy normalize to full
	body, conf = ExtractBody("the mouthfeel is syrupy", nil, nil)
	assert.Equal(t, "full", body)
	assert.InDelta(t, 0.8, conf, 0.001)

	body, conf = ExtractBody("a velvety espresso", nil, nil)
	assert.Equal(t, "full", body)
	assert.InDelta(t, 0.7, conf, 0.001)
}

func TestExtractAromaDescription(t *testing.T) {
	aroma, conf := ExtractAroma("an aroma of jasmine and honeysuckle", nil, nil)
	assert.Equal(t, "jasmine honeysuckle", aroma)
	assert.InDelta(t, 0.8, conf, 0.001)

	aroma, conf = ExtractAroma("", []string{"Aroma Floral"}, nil)
	assert.Equal(t, "floral", aroma)
	assert.InDelta(t, 0.9, conf, 0.001)

	aroma, conf = ExtractAroma("hints of vanilla throughout", nil, nil)
	assert.Equal(t, "sweet", aroma)
	assert.InDelta(t, 0.7, conf, 0.001)
}

func TestDetectWithMilkSuitable(t *testing.T) {
	milk, conf := DetectWithMilkSuitable("", []string{"Espresso Based"}, nil)
	assert.True(t, milk)
	assert.InDelta(t, 0.9, conf, 0.001)

	milk, conf = DetectWithMilkSuitable("best enjoyed black only", nil, nil)
	assert.False(t, milk)
	assert.InDelta(t, 0.8, conf, 0.001)

	// Roast level is the weakest rung.
	milk, conf = DetectWithMilkSuitable("a classic dark roast", nil, nil)
	assert.True(t, milk)
	assert.InDelta(t, 0.6, conf, 0.001)

	_, conf = DetectWithMilkSuitable("no evidence here", nil, nil)
	assert.Zero(t, conf)

	milk, conf = DetectWithMilkSuitable("", nil, map[string]any{"milk_suitable": "yes"})
	assert.True(t, milk)
	assert.InDelta(t, 0.9, conf, 0.001)
}

func TestExtractVarietals(t *testing.T) {
	varietals, conf := ExtractVarietals("washed sl28 and sl34 from Nyeri", nil)
	assert.Equal(t, []string{"sl28", "sl34"}, varietals)
	assert.InDelta(t, 0.8, conf, 0.001)

	// geisha and gesha collapse to one canonical spelling
	varietals, _ = ExtractVarietals("a gesha lot, sometimes spelled geisha", nil)
	assert.Equal(t, []string{"gesha"}, varietals)

	varietals, conf = ExtractVarietals("a house blend", []string{"Bourbon"})
	assert.Equal(t, []string{"bourbon"}, varietals)
	assert.InDelta(t, 0.8, conf, 0.001)

	varietals, conf = ExtractVarietals("nothing varietal here", nil)
	assert.Nil(t, varietals)
	assert.Zero(t, conf)
}

func TestEnrichCandidateSensoryProfile(t *testing.T) {
	raw := &types.RawProduct{
		Name:        "Kalledevarapura Estate",
		Description: "A full-bodied coffee with low acidity and notes of toffee. An aroma of jasmine. Best enjoyed with milk. Washed caturra.",
		SourceURL:   "https://roaster.example/kalledevarapura",
	}
	c := types.NewProductCandidate(raw.Name, raw.SourceURL)
	c.Description = raw.Description
	EnrichCandidate(c, raw)

	assert.Equal(t, "low", c.Acidity)
	assert.Equal(t, "high", c.Sweetness)
	assert.Equal(t, "full", c.Body)
	assert.Equal(t, "jasmine", c.Aroma)
	require.NotNil(t, c.WithMilkSuitable)
	assert.True(t, *c.WithMilkSuitable)
	assert.Equal(t, []string{"caturra"}, c.Varietals)
}
