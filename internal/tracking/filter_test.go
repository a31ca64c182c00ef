package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
)

func TestParseFilterComparisons(t *testing.T) {
	parsed, err := parseFilter(`metrics.acc > 0.92 AND params.optimizer = 'adam' AND tags.team != "vision"`)
	assert.Nil(t, err)
	assert.Len(t, parsed.comparisons, 3)

	assert.Equal(t, fieldMetric, parsed.comparisons[0].kind)
	assert.Equal(t, "acc", parsed.comparisons[0].key)
	assert.Equal(t, opGt, parsed.comparisons[0].op)
	assert.True(t, parsed.comparisons[0].isNumeric)
	assert.Equal(t, 0.92, parsed.comparisons[0].numValue)

	assert.Equal(t, fieldParam, parsed.comparisons[1].kind)
	assert.Equal(t, opEq, parsed.comparisons[1].op)
	assert.Equal(t, "adam", parsed.comparisons[1].strValue)

	assert.Equal(t, fieldTag, parsed.comparisons[2].kind)
	assert.Equal(t, opNe, parsed.comparisons[2].op)
}

func TestParseFilterEmptyMatchesEverything(t *testing.T) {
	parsed, err := parseFilter("")
	assert.Nil(t, err)
	assert.Len(t, parsed.comparisons, 0)

	view := &runView{run: &store.Run{RunId: "r1"}}
	assert.True(t, view.matches(parsed))
}

func TestParseFilterRejectsMalformedExpressions(t *testing.T) {
	for _, expr := range []string{
		"acc > 0.92",                 // no namespace
		"metrics.acc >> 0.92",        // bad comparator
		"metrics.acc > adam",         // unquoted string value
		"metrics.acc > 0.9 OR x = 1", // only AND is supported
		"metrics.acc LIKE 0.9",       // LIKE needs a string
		"bogus.acc = 1",              // unknown namespace
	} {
		_, err := parseFilter(expr)
		assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err), "expression %q", expr)
	}
}

func TestLikeMatching(t *testing.T) {
	parsed, err := parseFilter(`attributes.run_name LIKE 'train-%'`)
	assert.Nil(t, err)

	matching := &runView{run: &store.Run{Name: "train-resnet"}}
	other := &runView{run: &store.Run{Name: "eval-resnet"}}
	assert.True(t, matching.matches(parsed))
	assert.False(t, other.matches(parsed))
}

func TestNumericComparatorsOnParams(t *testing.T) {
	// Params are strings, but numeric comparisons apply when both sides
	// parse as numbers.
	parsed, err := parseFilter("params.lr <= 0.01")
	assert.Nil(t, err)

	low := &runView{run: &store.Run{}, params: map[string]string{"lr": "0.001"}}
	high := &runView{run: &store.Run{}, params: map[string]string{"lr": "0.1"}}
	assert.True(t, low.matches(parsed))
	assert.False(t, high.matches(parsed))
}

func TestAttributeFilters(t *testing.T) {
	view := &runView{run: &store.Run{
		RunId:        "r1",
		Name:         "train",
		Status:       store.RunStatusFinished,
		ExperimentId: "e1",
		StartTime:    1000,
	}}

	for expr, want := range map[string]bool{
		`attributes.status = 'FINISHED'`:  true,
		`attributes.status = 'RUNNING'`:   false,
		`attributes.run_id = 'r1'`:        true,
		`attributes.start_time >= 1000`:   true,
		`attributes.start_time > 1000`:    false,
		`attributes.experiment_id = 'e1'`: true,
	} {
		parsed, err := parseFilter(expr)
		assert.Nil(t, err)
		assert.Equal(t, want, view.matches(parsed), "expression %q", expr)
	}
}

func TestPageTokenRoundTrip(t *testing.T) {
	offset, err := decodePageToken(encodePageToken(42))
	assert.Nil(t, err)
	assert.Equal(t, 42, offset)

	offset, err = decodePageToken("")
	assert.Nil(t, err)
	assert.Equal(t, 0, offset)

	_, err = decodePageToken("not-a-token")
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}

func TestNormalizeMaxResults(t *testing.T) {
	normalized, err := normalizeMaxResults(0)
	assert.Nil(t, err)
	assert.Equal(t, defaultMaxResults, normalized)

	normalized, err = normalizeMaxResults(10)
	assert.Nil(t, err)
	assert.Equal(t, 10, normalized)

	_, err = normalizeMaxResults(maxMaxResults + 1)
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}
