package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumStorageRoundTrip(t *testing.T) {
	for _, st := range []EventState{EventPending, EventPublished, EventCanceled} {
		parsed, err := ParseEventState(st.StorageValue())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}
	for _, st := range []RequestStatus{RequestPending, RequestConfirmed, RequestRejected, RequestCanceled} {
		assert.Equal(t, strings.ToLower(string(st)), st.StorageValue())
		parsed, err := ParseRequestStatus(st.StorageValue())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	_, err := ParseEventState("draft")
	assert.Error(t, err)
}

func TestStatusUpdateRequestDecodesAnyCase(t *testing.T) {
	var req StatusUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"requestIds":["a"],"status":"confirmed"}`), &req))
	assert.Equal(t, RequestConfirmed, req.Status)

	err := json.Unmarshal([]byte(`{"status":"maybe"}`), &req)
	assert.Error(t, err)
}

func TestDateTimeJSON(t *testing.T) {
	ts := time.Date(2026, 5, 17, 8, 30, 0, 0, time.UTC)
	b, err := json.Marshal(HitCreate{App: "ewm", URI: "/events/1", IP: "10.0.0.1", Timestamp: DateTime(ts)})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"timestamp":"2026-05-17 08:30:00"`)

	var back HitCreate
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, ts.Equal(back.Timestamp.Time()))

	assert.Error(t, json.Unmarshal([]byte(`{"timestamp":"2026-05-17T08:30:00Z"}`), &back))
}

func TestParticipationRequestJSON(t *testing.T) {
	r := ParticipationRequest{ID: "r1", EventID: "e1", RequesterID: "u1", Status: RequestPending,
		Created: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1","event":"e1","requester":"u1","status":"PENDING","created":"2026-01-02 03:04:05"}`, string(b))
}
