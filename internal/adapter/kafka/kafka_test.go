package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 6, 18, 11, 30, 0, 0, time.UTC)
	event := domain.NormalizedEvent{
		EarthquakeID: ptr("ci40801680"),
		Status:       ptr(domain.StatusReviewed),
		MagType:      ptr("ml"),
		Magnitude:    ptr(0.67),
		Lat:          ptr(35.7305),
		Lon:          ptr(-117.542),
		Time:         ptr("2024/06/18 11:27:58"),
		NST:          ptr(int64(24)),
	}

	msg, err := serializeToMessage(event, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("ci40801680"), msg.Key)
	assert.Contains(t, string(msg.Value), `"magtype":"ml"`)
	assert.Contains(t, string(msg.Value), `"alert":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "processed_at", msg.Headers[0].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[0].Value)
	assert.Equal(t, "magtype", msg.Headers[1].Key)
	assert.Equal(t, []byte("ml"), msg.Headers[1].Value)

	var roundtrip domain.NormalizedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	if diff := cmp.Diff(event, roundtrip); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeToMessage_NoIDOrMagType(t *testing.T) {
	msg, err := serializeToMessage(domain.NormalizedEvent{}, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	assert.Nil(t, msg.Key)
	assert.Len(t, msg.Headers, 1)
}
