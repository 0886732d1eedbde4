package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
	}{
		{"M", TagM},
		{"P", TagP},
		{"T", TagT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
			assert.True(t, got.Valid())
		})
	}
}

func TestParseTagInvalid(t *testing.T) {
	_, err := ParseTag("K")
	assert.Error(t, err)

	var zero Tag
	assert.False(t, zero.Valid())
	_, err = zero.MarshalText()
	assert.Error(t, err)
}

func TestTagTextRoundTrip(t *testing.T) {
	b, err := TagP.MarshalText()
	require.NoError(t, err)

	var got Tag
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, TagP, got)
}
