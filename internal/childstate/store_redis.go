package childstate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"custodia/pkg/domain"
)

const childStateKeyPrefix = "custodia:child:"

// RedisStore keeps child state in a Redis hash per child, so multiple engine
// instances share last-known state. Field writes are atomic per call; the
// per-child ordering discipline is enforced by the pipeline, not here.
type RedisStore struct {
	client *redis.Client
	// ttl expires state for children that stopped reporting. Zero disables.
	ttl time.Duration
}

type RedisStoreOption func(*RedisStore)

// WithTTL sets an expiry on child state hashes, refreshed on every write.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func stateKey(childID domain.ChildID) string {
	return childStateKeyPrefix + childID.String() + ":state"
}

func (s *RedisStore) Get(ctx context.Context, childID domain.ChildID) (State, bool, error) {
	fields, err := s.client.HGetAll(ctx, stateKey(childID)).Result()
	if err != nil {
		return State{}, false, fmt.Errorf("get child state: %w", err)
	}
	if len(fields) == 0 {
		return State{}, false, nil
	}

	state := State{ChildID: childID, Status: StatusOutside, Device: fields["device"]}
	state.Latitude, _ = strconv.ParseFloat(fields["lat"], 64)
	state.Longitude, _ = strconv.ParseFloat(fields["lng"], 64)
	state.Battery, _ = strconv.Atoi(fields["battery"])
	if v := fields["last_update"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			state.LastUpdateAt = ts
		}
	}
	if v := fields["last_eval"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			state.LastEvaluatedAt = ts
		}
	}
	if fields["status"] == string(StatusInside) {
		state.Status = StatusInside
		if zid, err := uuid.Parse(fields["current_zone"]); err == nil {
			state.CurrentZoneID = domain.ZoneID(zid)
		}
	}
	return state, true, nil
}

func (s *RedisStore) SetLocation(ctx context.Context, childID domain.ChildID, lat, lng float64, battery int, device string, at time.Time) error {
	key := stateKey(childID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"lat", strconv.FormatFloat(lat, 'f', -1, 64),
		"lng", strconv.FormatFloat(lng, 'f', -1, 64),
		"battery", strconv.Itoa(battery),
		"device", device,
		"last_update", at.UTC().Format(time.RFC3339Nano),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set child location: %w", err)
	}
	return nil
}

func (s *RedisStore) ApplyEvaluation(ctx context.Context, childID domain.ChildID, inside bool, zoneID domain.ZoneID, at time.Time) error {
	key := stateKey(childID)
	status := StatusOutside
	zone := ""
	if inside {
		status = StatusInside
		zone = zoneID.String()
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"status", string(status),
		"current_zone", zone,
		"last_eval", at.UTC().Format(time.RFC3339Nano),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("apply evaluation: %w", err)
	}
	return nil
}
