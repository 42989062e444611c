package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(`{"confidence":0.92,"row_number":1,"date":"2024-01-02","description":"coffee","rationale":"amounts line up"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.92, v.Confidence)
	require.NotNil(t, v.RowNumber)
	assert.Equal(t, 1, *v.RowNumber)
	assert.Equal(t, "coffee", v.Description)
}

func TestParseVerdictWithCodeFences(t *testing.T) {
	v, err := ParseVerdict("```json\n{\"confidence\":0.7,\"row_number\":2}\n```")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v.Confidence)
	require.NotNil(t, v.RowNumber)
	assert.Equal(t, 2, *v.RowNumber)
}

func TestParseVerdictNullRow(t *testing.T) {
	v, err := ParseVerdict(`{"confidence":0.1,"row_number":null}`)
	require.NoError(t, err)
	assert.Nil(t, v.RowNumber)
}

func TestParseVerdictConfidenceOutOfRange(t *testing.T) {
	_, err := ParseVerdict(`{"confidence":1.4,"row_number":1}`)
	require.Error(t, err)

	_, err = ParseVerdict(`{"confidence":-0.2,"row_number":1}`)
	require.Error(t, err)
}

func TestParseVerdictNotJSON(t *testing.T) {
	_, err := ParseVerdict("I could not find a match, sorry.")
	require.Error(t, err)
}

func TestParseVerdictMissingConfidence(t *testing.T) {
	_, err := ParseVerdict(`{"row_number":1}`)
	require.Error(t, err)
}

func TestParseVerdictNonIntegerRow(t *testing.T) {
	_, err := ParseVerdict(`{"confidence":0.9,"row_number":"first"}`)
	require.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}
