package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestId_NumberStringNotEqual(t *testing.T) {
	t.Parallel()

	num := NewNumberID(1)
	str := NewStringID("1")

	assert.False(t, num.Equal(str), "numeric id 1 must not equal string id \"1\"")
	assert.NotEqual(t, num.key(), str.key())
}

func TestRequestId_EqualSameTag(t *testing.T) {
	t.Parallel()

	assert.True(t, NewNumberID(42).Equal(NewNumberID(42)))
	assert.True(t, NewStringID("abc").Equal(NewStringID("abc")))
	assert.False(t, NewNumberID(42).Equal(NewNumberID(43)))
}

func TestRequestId_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   RequestId
	}{
		{"number", NewNumberID(7)},
		{"string", NewStringID("req-7")},
		{"zero", RequestId{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.id)
			require.NoError(t, err)

			var decoded RequestId
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, tt.id.Equal(decoded))
		})
	}
}

func TestRequestId_UnmarshalNull(t *testing.T) {
	t.Parallel()

	var id RequestId
	require.NoError(t, json.Unmarshal([]byte("null"), &id))
	assert.True(t, id.Equal(RequestId{}))
}

func TestRequestId_UnmarshalString(t *testing.T) {
	t.Parallel()

	var id RequestId
	require.NoError(t, json.Unmarshal([]byte(`"abc-123"`), &id))
	assert.True(t, id.IsString())
	assert.Equal(t, "abc-123", id.String())
}

func TestRequestId_UnmarshalNumber(t *testing.T) {
	t.Parallel()

	var id RequestId
	require.NoError(t, json.Unmarshal([]byte("99"), &id))
	assert.False(t, id.IsString())
	n, ok := id.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(99), n)
}
