package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEventEncoding(t *testing.T) {
	event := StatusEvent{
		ID:      "6b9c0ce5-6f3e-4f2d-9a77-0f3f6f6f0001",
		IssueID: "64f1b2c3d4e5f60718293a4b",
		Status:  "Closed",
		At:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, event.ID, decoded["id"])
	assert.Equal(t, event.IssueID, decoded["issueId"])
	assert.Equal(t, "Closed", decoded["status"])
	assert.Equal(t, "2026-09-01T12:00:00Z", decoded["at"])
}

func TestNewRedisNotifierDefaultChannel(t *testing.T) {
	n := NewRedisNotifier(nil, "")
	assert.Equal(t, "issue-status-events", n.channel)

	n = NewRedisNotifier(nil, "custom-channel")
	assert.Equal(t, "custom-channel", n.channel)
}

func TestLogNotifierNeverFails(t *testing.T) {
	assert.NotPanics(t, func() {
		LogNotifier{}.Notify(context.Background(), "64f1b2c3d4e5f60718293a4b", "Resolved")
	})
}
