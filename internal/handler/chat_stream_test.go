package handler

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"study-mitra/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestOnly_KeepsNewestPendingSnapshot(t *testing.T) {
	ch := make(chan []domain.ChatMessage, 1)
	deliver := latestOnly(ch)

	deliver([]domain.ChatMessage{{ID: "m1"}})
	deliver([]domain.ChatMessage{{ID: "m1"}, {ID: "m2"}})

	select {
	case got := <-ch:
		assert.Len(t, got, 2)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	assert.Empty(t, ch)
}

func TestWriteSnapshotEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeSnapshotEvent(w, []domain.ChatMessage{{ID: "m1", Role: domain.RoleUser, Content: "hi"}}))
	out := buf.String()
	assert.Contains(t, out, "event: snapshot\n")
	assert.Contains(t, out, `"content":"hi"`)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n\n")))

	buf.Reset()
	require.NoError(t, writeSnapshotEvent(w, nil))
	assert.Contains(t, buf.String(), `data: {"messages":[]}`)
}
