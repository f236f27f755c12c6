package idempotency

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
)

const (
	keyTTL   = 24 * time.Hour
	inFlight = "pending"
)

// Store reserves client-supplied idempotency keys so that a retried
// create returns the original appointment instead of double-submitting.
// Keys are scoped per requester.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) key(requesterID uint, key string) string {
	return fmt.Sprintf("idem:%d:%s", requesterID, key)
}

// Begin reserves the key. It returns (0, true, nil) when the key is
// fresh, the previously created appointment id when the key was already
// finished, and the duplicate_request business error while the first
// submission is still in flight.
func (s *Store) Begin(
	ctx context.Context,
	requesterID uint,
	key string,
) (uint, bool, error) {

	k := s.key(requesterID, key)

	ok, err := s.rdb.SetNX(ctx, k, inFlight, keyTTL).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if err != nil {
		return 0, false, err
	}

	if val == inFlight {
		return 0, false, httperr.ErrBusinessMsg(
			httperr.CodeDuplicateRequest,
			"a request with this idempotency key is still in flight",
		)
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency record %q: %w", k, err)
	}

	return uint(id), false, nil
}

// Finish records the created appointment against the key.
func (s *Store) Finish(
	ctx context.Context,
	requesterID uint,
	key string,
	appointmentID uint,
) error {
	k := s.key(requesterID, key)
	return s.rdb.Set(ctx, k, strconv.FormatUint(uint64(appointmentID), 10), keyTTL).Err()
}

// Abandon releases a reserved key after a failed create so the client
// can retry with the same key.
func (s *Store) Abandon(ctx context.Context, requesterID uint, key string) {
	_ = s.rdb.Del(ctx, s.key(requesterID, key)).Err()
}
