package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL bounds how stale a presence flag can get if the process dies
// without cleaning up.
const presenceTTL = 5 * time.Minute

type PresenceRepository interface {
	SetOnline(ctx context.Context, userID uint) error
	SetOffline(ctx context.Context, userID uint) error
	IsOnline(ctx context.Context, userID uint) (bool, error)
	OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error)
}

type presenceRepository struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func presenceKey(userID uint) string {
	return "presence:user:" + strconv.FormatUint(uint64(userID), 10)
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID uint) error {
	return r.client.Set(ctx, presenceKey(userID), "online", presenceTTL).Err()
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID uint) error {
	return r.client.Del(ctx, presenceKey(userID)).Err()
}

func (r *presenceRepository) IsOnline(ctx context.Context, userID uint) (bool, error) {
	val, err := r.client.Get(ctx, presenceKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "online", nil
}

// OnlineUsers filters userIDs down to those with a live presence flag,
// pipelined to keep it one roundtrip.
func (r *presenceRepository) OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	cmds, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Get(ctx, presenceKey(id))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, err
	}

	online := make([]uint, 0, len(userIDs))
	for i, cmd := range cmds {
		if val, _ := cmd.(*redis.StringCmd).Result(); val == "online" {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}
