package types

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationMethod(t *testing.T) {
	t.Run("ParseCaseInsensitive", func(t *testing.T) {
		m, ok := ParseVerificationMethod("  tEsT ")
		assert.True(t, ok)
		assert.Equal(t, VerificationTest, m)

		m, ok = ParseVerificationMethod("DEMONSTRATION")
		assert.True(t, ok)
		assert.Equal(t, VerificationDemonstration, m)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		_, ok := ParseVerificationMethod("telepathy")
		assert.False(t, ok)
	})

	t.Run("UnassignedIsNotParsable", func(t *testing.T) {
		_, ok := ParseVerificationMethod("Unassigned")
		assert.False(t, ok)
	})
}

func TestValidationMethod(t *testing.T) {
	m, ok := ParseValidationMethod("engineering review")
	require.True(t, ok)
	assert.Equal(t, ValidationEngineeringReview, m)

	_, ok = ParseValidationMethod("")
	assert.False(t, ok)
}

func TestLooseContent(t *testing.T) {
	t.Run("IsEmpty", func(t *testing.T) {
		assert.True(t, LooseContent{}.IsEmpty())
		assert.False(t, LooseContent{Paragraphs: []string{"x"}}.IsEmpty())
		assert.False(t, LooseContent{Tables: []LooseTable{{}}}.IsEmpty())
	})

	t.Run("ColumnCount", func(t *testing.T) {
		table := LooseTable{Rows: [][]string{{"a"}, {"a", "b", "c"}, {"a", "b"}}}
		assert.Equal(t, 3, table.ColumnCount())
		assert.Equal(t, 0, LooseTable{}.ColumnCount())
	})
}

func TestRequirementJSON(t *testing.T) {
	req := Requirement{
		Item:                "ABC-REQ_RC-10",
		Name:                "Power On",
		PrimaryVerification: VerificationTest,
		VerificationMethods: []VerificationMethod{VerificationTest},
		Loose: LooseContent{
			Tables: []LooseTable{{Title: "Modes", Rows: [][]string{{"Mode", "Value"}}}},
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"item":"ABC-REQ_RC-10"`)
	assert.Contains(t, string(data), `"primary_verification":"Test"`)
	assert.NotContains(t, string(data), "created_date")
}

func TestRequestContext(t *testing.T) {
	rc := NewRequestContext("")
	assert.NotEmpty(t, rc.RequestID)
	assert.NotEqual(t, rc.RequestID, NewRequestContext("").RequestID)
	assert.Equal(t, "req-1", NewRequestContext("req-1").RequestID)

	ctx := WithRequestContext(context.Background(), rc)
	assert.Equal(t, rc.RequestID, GetRequestContext(ctx).RequestID)

	empty := GetRequestContext(context.Background())
	assert.Empty(t, empty.RequestID)
}

func TestRequirementValidate(t *testing.T) {
	assert.NoError(t, Requirement{Item: "ABC-REQ_RC-1"}.Validate())
	assert.Error(t, Requirement{Name: "unnamed"}.Validate())
}
