package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/dashboard"
)

const dayLayout = "2006-01-02"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ dashboard.Cache = (*redisCache)(nil) // interface compliance check

// NewRedisClient connects to conf.Redis.Addr. It returns nil when no address is configured.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	if conf.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, conf *core.Config) *redisCache {
	ttl := conf.Redis.DashboardTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCache{client: client, ttl: ttl}
}

func summaryKey(orgID string, day time.Time) string {
	return "dashboard:" + orgID + ":" + day.Format(dayLayout)
}

func (c *redisCache) GetSummary(ctx context.Context, orgID string, day time.Time) (dashboard.Summary, bool, error) {
	data, err := c.client.Get(ctx, summaryKey(orgID, day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dashboard.Summary{}, false, nil
		}
		return dashboard.Summary{}, false, errors.Wrap(err, "reading dashboard summary")
	}
	return decodeSummary(data)
}

func (c *redisCache) SetSummary(ctx context.Context, orgID string, s dashboard.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding dashboard summary")
	}
	return errors.Wrap(c.client.Set(ctx, summaryKey(orgID, s.Day), data, c.ttl).Err(), "writing dashboard summary")
}

func decodeSummary(data []byte) (dashboard.Summary, bool, error) {
	var s dashboard.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return dashboard.Summary{}, false, errors.Wrap(err, "decoding dashboard summary")
	}
	return s, true, nil
}
