package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drp/internal/models"
)

type paperRow struct {
	Number    string
	Title     string
	Party     string
	Status    string
	Type      string
	CreatedAt string
}

var paperSchema = Schema[paperRow]{
	SearchFields: func(p paperRow) []string {
		return []string{p.Number, p.Title, p.Party}
	},
	Field: func(p paperRow, name string) string {
		switch name {
		case "status":
			return p.Status
		case "type":
			return p.Type
		}
		return ""
	},
	Timestamp: func(p paperRow) string { return p.CreatedAt },
}

func samplePapers() []paperRow {
	return []paperRow{
		{Number: "A1", Title: "Door", Party: "Acme", Status: "Active", Type: "X", CreatedAt: "2026-03-10 09:30:00"},
		{Number: "B2", Title: "Frame", Party: "Basel", Status: "Active", Type: "Y", CreatedAt: "2026-03-11 14:00:00"},
		{Number: "C3", Title: "Shutter", Party: "Acme", Status: "Closed", Type: "X", CreatedAt: "2026-03-12 23:59:59.999"},
	}
}

func TestSearchCaseInsensitiveSubstring(t *testing.T) {
	got := Apply(samplePapers(), Criteria{Search: "do"}, paperSchema)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Number)
}

func TestSearchMatchesAnyConfiguredField(t *testing.T) {
	got := Apply(samplePapers(), Criteria{Search: "acme"}, paperSchema)
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].Number)
	assert.Equal(t, "C3", got[1].Number)
}

func TestEmptySearchIsNoOp(t *testing.T) {
	records := samplePapers()
	assert.Equal(t, records, Apply(records, Criteria{Search: ""}, paperSchema))
	assert.Equal(t, records, Apply(records, Criteria{Search: "   "}, paperSchema))
}

func TestEqualityFiltersAndTogether(t *testing.T) {
	got := Apply(samplePapers(), Criteria{
		Equals: map[string]string{"status": "Active", "type": "X"},
	}, paperSchema)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Number)
}

func TestEqualitySentinelMeansUnconstrained(t *testing.T) {
	got := Apply(samplePapers(), Criteria{
		Equals: map[string]string{"status": All, "type": ""},
	}, paperSchema)
	assert.Len(t, got, 3)
}

func TestEqualityIndependentOfFieldOrder(t *testing.T) {
	// Maps do not promise iteration order, so run enough times that a
	// hidden order dependence would show up as a flaky result.
	for i := 0; i < 50; i++ {
		a := Apply(samplePapers(), Criteria{Equals: map[string]string{"status": "Active", "type": "X"}}, paperSchema)
		b := Apply(samplePapers(), Criteria{Equals: map[string]string{"type": "X", "status": "Active"}}, paperSchema)
		require.Equal(t, a, b)
	}
}

func TestDateRangeInclusiveAtBothBounds(t *testing.T) {
	records := []paperRow{
		{Number: "lo", CreatedAt: "2026-03-10 00:00:00"},
		{Number: "hi", CreatedAt: "2026-03-12 23:59:59.999"},
		{Number: "before", CreatedAt: "2026-03-09 23:59:59.999"},
		{Number: "after", CreatedAt: "2026-03-13 00:00:00"},
	}
	got := Apply(records, Criteria{DateFrom: "2026-03-10", DateTo: "2026-03-12"}, paperSchema)
	require.Len(t, got, 2)
	assert.Equal(t, "lo", got[0].Number)
	assert.Equal(t, "hi", got[1].Number)
}

func TestDateRangeOpenEnds(t *testing.T) {
	got := Apply(samplePapers(), Criteria{DateFrom: "2026-03-11"}, paperSchema)
	assert.Len(t, got, 2)

	got = Apply(samplePapers(), Criteria{DateTo: "2026-03-10"}, paperSchema)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Number)
}

func TestUnparsableTimestampExcludedWhenBounded(t *testing.T) {
	records := []paperRow{{Number: "bad", CreatedAt: "not a date"}}
	assert.Empty(t, Apply(records, Criteria{DateFrom: "2026-01-01"}, paperSchema))
	// Without an active bound the timestamp is never consulted.
	assert.Len(t, Apply(records, Criteria{}, paperSchema), 1)
}

func TestApplyIsIdempotent(t *testing.T) {
	c := Criteria{
		Search:   "a",
		Equals:   map[string]string{"status": "Active"},
		DateFrom: "2026-03-01",
		DateTo:   "2026-03-31",
	}
	once := Apply(samplePapers(), c, paperSchema)
	twice := Apply(once, c, paperSchema)
	assert.Equal(t, once, twice)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := samplePapers()
	before := samplePapers()
	Apply(records, Criteria{Search: "door"}, paperSchema)
	assert.Equal(t, before, records)
}

func TestGroupDimensionsSumsIdenticalRows(t *testing.T) {
	dims := []models.PaperDimension{
		{WidthMM: 900, HeightMM: 2100, Qty: 2},
		{WidthMM: 1200, HeightMM: 2100, Qty: 1},
		{WidthMM: 900, HeightMM: 2100, Qty: 3},
	}
	got := GroupDimensions(dims)
	require.Len(t, got, 2)
	assert.Equal(t, GroupedDimension{WidthMM: 900, HeightMM: 2100, Qty: 5}, got[0])
	assert.Equal(t, GroupedDimension{WidthMM: 1200, HeightMM: 2100, Qty: 1}, got[1])
	// Input rows keep their stored quantities.
	assert.Equal(t, 2, dims[0].Qty)
}

func TestUnitConversionIsDisplayOnly(t *testing.T) {
	assert.InDelta(t, 48.0, Inches(1219.2), 0.001)
	assert.Equal(t, `48.00"`, FormatInches(1219.2))
	assert.Equal(t, "900 mm", FormatMM(900))
	assert.Equal(t, "912.5 mm", FormatMM(912.5))
}
