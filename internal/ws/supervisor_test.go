package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepTerminatesSilentConnections(t *testing.T) {
	cfg := fastConfig() // 50ms interval, 2 missed beats -> stale after 150ms
	h := NewHub(cfg, nil, nil)
	before := time.Now()
	userSock := newFakeTransport()
	adminSock := newFakeTransport()
	h.Attach(userSock, Identity{UserID: 9})
	h.Attach(adminSock, Identity{UserID: 1, Admin: true})

	// Just inside the threshold: nobody is touched.
	assert.Zero(t, h.sweep(before.Add(cfg.staleAfter())))
	assert.True(t, h.registry.IsOnline(9))

	// Past the threshold: both namespaces are swept.
	assert.Equal(t, 2, h.sweep(time.Now().Add(cfg.staleAfter()+time.Millisecond)))
	assert.False(t, h.registry.IsOnline(9))
	assert.Zero(t, h.Stats().Users.Total)
	assert.Zero(t, h.Stats().Admins.Total)
	assert.True(t, userSock.isClosed())

	h.Stop()
}

func TestHeartbeatKeepsConnectionAlive(t *testing.T) {
	cfg := fastConfig()
	h := NewHub(cfg, nil, nil)
	sock := newFakeTransport()
	attached := time.Now()
	h.Attach(sock, Identity{UserID: 12})

	// Let real time pass, then beat. The sweep time below is stale relative
	// to the attach instant but fresh relative to the beat.
	time.Sleep(20 * time.Millisecond)
	sock.push(`{"type":"heartbeat"}`)
	require.Eventually(t, func() bool {
		return len(sock.writtenFrames()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, h.sweep(attached.Add(cfg.staleAfter()+10*time.Millisecond)))
	assert.True(t, h.registry.IsOnline(12))

	h.Stop()
}

func TestTerminatedConnectionIsNotResurrected(t *testing.T) {
	cfg := fastConfig()
	h := NewHub(cfg, nil, nil)
	sock := newFakeTransport()
	h.Attach(sock, Identity{UserID: 15})

	require.Equal(t, 1, h.sweep(time.Now().Add(cfg.staleAfter()+time.Millisecond)))

	// A frame racing in after termination must not re-register the conn.
	sock.push(`{"type":"heartbeat"}`)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, h.registry.IsOnline(15))
	assert.Zero(t, h.Stats().Users.Total)

	h.Stop()
}

func TestSweepRefreshesSurvivors(t *testing.T) {
	cfg := fastConfig()
	sink := &recordingSink{}
	h := NewHub(cfg, nil, sink)
	sock := newFakeTransport()
	before := time.Now()
	h.Attach(sock, Identity{UserID: 33})

	require.Zero(t, h.sweep(before.Add(cfg.staleAfter())))

	var refreshed []uint
	for _, ev := range sink.all() {
		if ev.Kind == "refresh" {
			refreshed = append(refreshed, ev.UserID)
		}
	}
	assert.Equal(t, []uint{33}, refreshed, "surviving users get a refresh event")

	// A reaped connection must not be refreshed by the same sweep.
	require.Equal(t, 1, h.sweep(time.Now().Add(cfg.staleAfter()+time.Millisecond)))
	events := sink.all()
	assert.Equal(t, "disconnect", events[len(events)-1].Kind)

	h.Stop()
}

func TestPeriodicSupervisorSweeps(t *testing.T) {
	cfg := Config{HeartbeatInterval: 20 * time.Millisecond, MaxMissedBeats: 1}
	sink := &recordingSink{}
	h := NewHub(cfg, nil, sink)
	h.Run()

	sock := newFakeTransport()
	h.Attach(sock, Identity{UserID: 21})

	require.Eventually(t, func() bool {
		return !h.registry.IsOnline(21)
	}, time.Second, 5*time.Millisecond, "supervisor should reap the silent connection")

	events := sink.all()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "disconnect", last.Kind)
	assert.True(t, last.Last)

	h.Stop()
}
