package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-service/internal/ws"
)

type fakePresenceRepo struct {
	mu       sync.Mutex
	online   map[uint]bool
	setCalls map[uint]int
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{online: map[uint]bool{}, setCalls: map[uint]int{}}
}

func (f *fakePresenceRepo) SetOnline(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	f.setCalls[userID]++
	return nil
}

func (f *fakePresenceRepo) SetOffline(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, userID)
	return nil
}

func (f *fakePresenceRepo) IsOnline(_ context.Context, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID], nil
}

func (f *fakePresenceRepo) OnlineUsers(_ context.Context, userIDs []uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if f.online[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakePresenceRepo) flagged(userID uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakePresenceRepo) sets(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls[userID]
}

func TestPresenceFlagsUserOnConnect(t *testing.T) {
	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo)

	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "connect", UserID: 42, At: time.Now()})

	require.Eventually(t, func() bool {
		return repo.flagged(42)
	}, time.Second, 5*time.Millisecond)
}

func TestPresenceClearsOnLastDisconnectOnly(t *testing.T) {
	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo)

	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "connect", UserID: 42, At: time.Now()})
	require.Eventually(t, func() bool {
		return repo.flagged(42)
	}, time.Second, 5*time.Millisecond)

	// One of several tabs closing leaves the flag in place.
	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "disconnect", UserID: 42, Last: false, At: time.Now()})
	time.Sleep(20 * time.Millisecond)
	assert.True(t, repo.flagged(42))

	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "disconnect", UserID: 42, Last: true, At: time.Now()})
	require.Eventually(t, func() bool {
		return !repo.flagged(42)
	}, time.Second, 5*time.Millisecond)
}

func TestPresenceRefreshReArmsFlag(t *testing.T) {
	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo)

	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "connect", UserID: 42, At: time.Now()})
	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "refresh", UserID: 42, At: time.Now()})

	// The refresh writes the flag again, resetting its expiry.
	require.Eventually(t, func() bool {
		return repo.sets(42) == 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, repo.flagged(42))
}

func TestPresenceIgnoresAdmins(t *testing.T) {
	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo)

	svc.ConnectionEvent(ws.ConnectionEvent{Kind: "connect", UserID: 1, Admin: true, At: time.Now()})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, repo.flagged(1))
	assert.Zero(t, repo.sets(1))
}

func TestPresenceOnlineUsersFilters(t *testing.T) {
	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo)

	require.NoError(t, repo.SetOnline(context.Background(), 7))

	online, err := svc.OnlineUsers(context.Background(), []uint{7, 9})
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, online)

	alive, err := svc.IsOnline(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, alive)
}
