package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	msg, err := encode(Event{
		Key:   "love you",
		Type:  "search",
		Value: map[string]int{"matches": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("love you"), msg.Key)
	assert.JSONEq(t, `{"matches":2}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("search"), msg.Headers[0].Value)
}

func TestEncodeWithoutType(t *testing.T) {
	msg, err := encode(Event{Key: "k", Value: "v"})
	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
}

func TestEncodeUnsupportedValue(t *testing.T) {
	_, err := encode(Event{Key: "k", Value: make(chan int)})
	assert.Error(t, err)
}
