package natsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStatusString(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", c.URL())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.False(t, c.IsHealthy())
	assert.Equal(t, -1, c.maxReconnects)
	assert.Equal(t, 2*time.Second, c.reconnectWait)
}

func TestNewClientEmptyURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestNewClientOptions(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithClientName("streamwatch"),
		WithMaxReconnects(10),
		WithReconnectWait(time.Second),
		WithConnectTimeout(3*time.Second),
		WithDrainTimeout(5*time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, "streamwatch", c.clientName)
	assert.Equal(t, 10, c.maxReconnects)
	assert.Equal(t, time.Second, c.reconnectWait)
	assert.Equal(t, 3*time.Second, c.timeout)
	assert.Equal(t, 5*time.Second, c.drainTimeout)
}

func TestNewClientInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  ClientOption
	}{
		{"nil logger", WithLogger(nil)},
		{"zero reconnect wait", WithReconnectWait(0)},
		{"negative connect timeout", WithConnectTimeout(-time.Second)},
		{"zero drain timeout", WithDrainTimeout(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient("nats://localhost:4222", tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	assert.False(t, isAlreadyExistsError(nil))
	assert.False(t, isAlreadyExistsError(assert.AnError))
	assert.True(t, isAlreadyExistsError(errBucketExists))
	assert.True(t, isAlreadyExistsError(errNameInUse))
}

var (
	errBucketExists = errorString("stream already exists")
	errNameInUse    = errorString("stream name already in use")
)

type errorString string

func (e errorString) Error() string { return string(e) }
