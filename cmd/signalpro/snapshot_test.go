package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/newthinker/signalpro/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	sess, err := session.New(session.DefaultConfig(), session.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer sess.Close()

	snap, err := sess.Snapshot(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printSnapshot(&buf, snap)
	out := buf.String()

	assert.Contains(t, out, "Win Rate:      66.7%")
	assert.Contains(t, out, "Total Profit:  +67$")
	assert.Contains(t, out, "Profit Factor: 1.67")
	assert.Contains(t, out, "ACTIVE SIGNALS")
	assert.Contains(t, out, "EURUSD")
	assert.Contains(t, out, "-100$")
	assert.Contains(t, out, "12:00:00")
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "snapshot", "chart", "export", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
