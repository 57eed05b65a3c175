package schema

import (
	"strings"
	"testing"

	"snapsearch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageSearchResults_Valid(t *testing.T) {
	out, err := DecodeImageSearchResults([]byte(testutil.ResultsJSON("q1", 2)))
	require.NoError(t, err)

	assert.Equal(t, "q1", out.QueryID)
	require.Len(t, out.SearchResults, 2)

	first := out.SearchResults[0]
	assert.Equal(t, []string{"B000000001"}, first.BbxAsinList)
	assert.Equal(t, 800.0, first.Properties.BoundingBox.ImageWidth)
	require.Len(t, first.BbxAsinMetadataList, 1)

	meta := first.BbxAsinMetadataList[0]
	require.NotNil(t, meta.Price)
	assert.Equal(t, "$19.99", *meta.Price)
	assert.Nil(t, meta.ListPrice)
	assert.Nil(t, meta.Availability)
	require.NotNil(t, meta.AverageOverallRating)
	assert.Equal(t, 4.5, *meta.AverageOverallRating)
	assert.Equal(t, "#ff0000", meta.ColorSwatches[0].HexColor)
}

func TestDecodeImageSearchResults_EmptyResults(t *testing.T) {
	out, err := DecodeImageSearchResults([]byte(`{"queryId":"q2","searchResults":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "q2", out.QueryID)
	assert.Empty(t, out.SearchResults)
}

// nullField replaces the first array under key with null.
func nullField(key string) string {
	body := testutil.ResultsJSON("q1", 1)
	start := strings.Index(body, `"`+key+`": [`)
	if start < 0 {
		panic("fixture has no " + key)
	}
	open := start + len(key) + 4
	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return body[:open] + "null" + body[i+1:]
			}
		}
	}
	panic("unterminated array for " + key)
}

func TestDecodeImageSearchResults_EmptyQueryID(t *testing.T) {
	out, err := DecodeImageSearchResults([]byte(`{"queryId":"","searchResults":[]}`))
	require.NoError(t, err)
	assert.Empty(t, out.QueryID)
}

func TestDecodeImageSearchResults_NullablePointersStayNullable(t *testing.T) {
	// listPrice, currencyPriceRange and availability are null in the fixture.
	_, err := DecodeImageSearchResults([]byte(testutil.ResultsJSON("q1", 1)))
	assert.NoError(t, err)
}

func TestDecodeImageSearchResults_Invalid(t *testing.T) {
	missingTitle := strings.Replace(testutil.ResultsJSON("q1", 1), `"title": "Summer dress",`, "", 1)
	wrongBoxType := strings.Replace(testutil.ResultsJSON("q1", 1), `"imageWidth": 800`, `"imageWidth": "800"`, 1)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>blocked</html>`},
		{"array at top level", `[1,2,3]`},
		{"wrong field types", testutil.MalformedResultsJSON},
		{"missing queryId", `{"searchResults":[]}`},
		{"missing searchResults", `{"queryId":"q1"}`},
		{"null searchResults", `{"queryId":"q","searchResults":null}`},
		{"null subContent", nullField("subContent")},
		{"null bbxAsinList", nullField("bbxAsinList")},
		{"null colorSwatches", nullField("colorSwatches")},
		{"null twisterVariations", nullField("twisterVariations")},
		{"missing nested required field", missingTitle},
		{"wrong nested type", wrongBoxType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeImageSearchResults([]byte(tt.body))
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}
