// internal/status/snapshot_test.go
package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_StartsUnavailable(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"kitchen", "bath"})

	_, err := m.Current()
	assert.True(t, errors.Is(err, ErrUnavailable))

	s := m.Snapshot()
	require.Len(t, s.Valves, 2)
	assert.Equal(t, "kitchen", s.Valves[0].Name)
	assert.Equal(t, 1, s.Valves[1].Slot)
}

func TestMirror_PublishDecodes(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"kitchen", "bath"})
	at := time.Unix(1700000000, 0)

	m.Publish(0x1D02, at)

	s, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1D02), s.Word)
	assert.True(t, s.Alarm)
	assert.True(t, s.Attributes.KeyboardLocked)
	assert.True(t, s.Attributes.ValveTwoGroups)
	assert.False(t, s.Attributes.FloorWashing)
	assert.True(t, s.Valves[0].Open)
	assert.False(t, s.Valves[1].Open)
	assert.Equal(t, at, s.UpdatedAt)
	assert.Zero(t, s.LastErrorCode)
}

func TestMirror_UnavailableKeepsLastState(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"kitchen"})

	m.Publish(0x0100, time.Now())
	m.MarkUnavailable(0, time.Now())

	s := m.Snapshot()
	assert.False(t, s.Available)
	assert.Equal(t, uint16(1), s.LastErrorCode)
	assert.Equal(t, uint16(0x0100), s.Word)
	assert.True(t, s.Valves[0].Open)

	_, err := m.Current()
	assert.True(t, errors.Is(err, ErrUnavailable))

	m.MarkUnavailable(2, time.Now())
	assert.Equal(t, uint16(2), m.Snapshot().LastErrorCode)

	m.Publish(0x0000, time.Now())
	s, err = m.Current()
	require.NoError(t, err)
	assert.Zero(t, s.LastErrorCode)
	assert.False(t, s.Valves[0].Open)
}

func TestMirror_ExtraNamesIgnored(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"a", "b", "c"})
	assert.Len(t, m.Snapshot().Valves, 2)
}

func TestMirror_SnapshotIsCopy(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"a"})
	m.Publish(0x0100, time.Now())

	s := m.Snapshot()
	s.Valves[0].Open = false

	assert.True(t, m.Snapshot().Valves[0].Open)
}

func TestMirror_DropsOlderResults(t *testing.T) {
	m := NewMirror(DefaultLayout(), []string{"kitchen"})
	t0 := time.Unix(1700000000, 0)

	_, ok := m.Publish(0x0100, t0.Add(2*time.Second))
	require.True(t, ok)

	// a poll that finished before the write lands late
	s, ok := m.Publish(0x0000, t0.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, uint16(0x0100), s.Word)
	assert.True(t, s.Valves[0].Open)

	_, ok = m.MarkUnavailable(1, t0)
	assert.False(t, ok)
	assert.True(t, m.Snapshot().Available)

	// equal stamps are accepted
	_, ok = m.Publish(0x0000, t0.Add(2*time.Second))
	assert.True(t, ok)
	assert.False(t, m.Snapshot().Valves[0].Open)

	_, ok = m.MarkUnavailable(0x86, t0.Add(3*time.Second))
	assert.True(t, ok)
	assert.Equal(t, uint16(0x86), m.Snapshot().LastErrorCode)
}
