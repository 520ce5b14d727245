package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tone, err := ParseTone("urgent")
	require.NoError(t, err)
	assert.Equal(t, ToneUrgent, tone)

	tone, err = ParseTone("  Playful ")
	require.NoError(t, err)
	assert.Equal(t, TonePlayful, tone)

	_, err = ParseTone("sarcastic")
	assert.Error(t, err)
}

func TestEmailInputsValidate(t *testing.T) {
	in := EmailInputs{Goal: "Launch sale", Audience: "subscribers", Message: "30% off", Tone: "URGENT"}
	assert.Nil(t, in.Validate())
	assert.Equal(t, ToneUrgent, in.Tone)

	empty := EmailInputs{Tone: "loud"}
	fields := empty.Validate()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "goal")
	assert.Contains(t, fields, "audience")
	assert.Contains(t, fields, "message")
	assert.Contains(t, fields, "tone")
}

func TestParseActionSlug(t *testing.T) {
	a, ok := ParseActionSlug("ab-test")
	require.True(t, ok)
	assert.Equal(t, ActionAbTest, a)

	a, ok = ParseActionSlug("Summary")
	require.True(t, ok)
	assert.True(t, a.TakesText())

	_, ok = ParseActionSlug("launch")
	assert.False(t, ok)
}
