package cmd

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/pkg/livestatus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_FlagDefaults(t *testing.T) {
	flags := rootCmd.Flags()

	url, err := flags.GetString("url")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/ws", url)

	delay, err := flags.GetDuration("reconnect")
	require.NoError(t, err)
	assert.Equal(t, livestatus.DefaultReconnectDelay, delay)

	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestRootCmd_RejectsNonPositiveReconnect(t *testing.T) {
	t.Cleanup(func() { reconnectDelay = livestatus.DefaultReconnectDelay })

	rootCmd.SetArgs([]string{"--reconnect", "0s"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--reconnect must be positive")
}

func TestRootCmd_StopsWhenContextEnds(t *testing.T) {
	t.Cleanup(func() {
		statusURL = "ws://localhost:3000/ws"
		reconnectDelay = livestatus.DefaultReconnectDelay
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"--url", "ws://127.0.0.1:1/ws", "--reconnect", "50ms"})
	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("statuswatch did not stop after cancellation")
	}
	assert.Equal(t, "ws://127.0.0.1:1/ws", statusURL)
}
