package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL is how long a poll keeps a viewer counted. Clients poll
// every 15 seconds, so three missed polls drop them.
const presenceTTL = 45 * time.Second

// Presence tracks who is currently polling a concert's availability.
// Purely advisory (admin dashboard, metrics); never part of gating.
type Presence struct {
	redis *redis.Client
	now   func() time.Time
}

func NewPresence(redisClient *redis.Client) *Presence {
	return &Presence{redis: redisClient, now: time.Now}
}

func presenceKey(concertID string) string {
	return fmt.Sprintf("viewers:%s", concertID)
}

// Touch records that clientKey polled concertID just now. Errors are
// returned for logging but are safe to ignore.
func (p *Presence) Touch(ctx context.Context, concertID, clientKey string) error {
	if p.redis == nil {
		return nil
	}

	now := p.now()
	key := presenceKey(concertID)

	pipe := p.redis.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: clientKey})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-presenceTTL).UnixMilli(), 10))
	pipe.Expire(ctx, key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Count returns how many distinct clients polled within the TTL.
func (p *Presence) Count(ctx context.Context, concertID string) (int64, error) {
	if p.redis == nil {
		return 0, nil
	}

	cutoff := strconv.FormatInt(p.now().Add(-presenceTTL).UnixMilli(), 10)
	return p.redis.ZCount(ctx, presenceKey(concertID), cutoff, "+inf").Result()
}
