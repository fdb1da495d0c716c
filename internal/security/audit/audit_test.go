package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAction(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAction(context.Background(), Entry{
		RequestID:  "req-1",
		Actor:      "cli",
		Action:     "delete",
		Resource:   "user",
		ResourceID: "u1",
		Status:     400,
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "audit", rec["msg"])
	assert.Equal(t, "audit", rec["component"])
	assert.Equal(t, "delete", rec["action"])
	assert.Equal(t, "user", rec["resource"])
	assert.Equal(t, "u1", rec["resource_id"])
	assert.Equal(t, "failed", rec["outcome"])
	assert.Equal(t, "req-1", rec["request_id"])
}
