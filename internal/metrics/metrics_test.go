// internal/metrics/metrics_test.go
package metrics

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/neptun-bridge/internal/config"
)

func TestNew_DisabledIsNop(t *testing.T) {
	s, err := New(config.MetricsConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)

	assert.NoError(t, s.Gauge("x", 1, nil))
	assert.NoError(t, s.Incr("x", nil))
	assert.NoError(t, s.Close())
}

func TestBool(t *testing.T) {
	assert.Equal(t, 1.0, Bool(true))
	assert.Equal(t, 0.0, Bool(false))
}

func TestStatsdSink_EmitsOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	s, err := New(config.MetricsConfig{
		Enabled:   true,
		Address:   pc.LocalAddr().String(),
		Namespace: "neptun.",
		Tags:      []string{"env:test"},
	}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Gauge("status.word", 256, []string{"hub:home"}))
	require.NoError(t, s.Incr("poll.errors", []string{"hub:home"}))
	require.NoError(t, s.Close())

	var got strings.Builder
	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = pc.SetReadDeadline(deadline)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			break
		}
		got.Write(buf[:n])
		got.WriteByte('\n')
		if strings.Contains(got.String(), "neptun.status.word") && strings.Contains(got.String(), "neptun.poll.errors") {
			break
		}
	}

	out := got.String()
	assert.Contains(t, out, "neptun.status.word:256|g")
	assert.Contains(t, out, "neptun.poll.errors:1|c")
	assert.Contains(t, out, "hub:home")
	assert.Contains(t, out, "env:test")
}
