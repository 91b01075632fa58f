package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	domainUser "lending-backend/internal/domain/user"

	"github.com/redis/go-redis/v9"
)

var (
	errMissingRequestAt = errors.New("missing Ax-Request-At")
	errBadRequestAt     = errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
	errSkewedRequestAt  = errors.New("Ax-Request-At too skewed")
)

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

// idempotencyKey scopes a request id to the caller, so two users sending the
// same Ax-Request-Id never see each other's responses.
// Layout: idemp:<method>:<route>:<user>:<request id>.
func idempotencyKey(method, route string, p domainUser.Principal, reqID string) string {
	owner := p.UserID
	if owner == "" {
		owner = "id" + strconv.FormatUint(p.ID, 10)
	}
	return fmt.Sprintf("idemp:%s:%s:%s:%s", strings.ToLower(method), route, owner, reqID)
}

// requestID lowercases Ax-Request-Id and reports whether it is a UUID (v1-v5)
// or 32 hex chars.
func requestID(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	return id, reUUID.MatchString(id) || reHex32.MatchString(id)
}

// requestAt parses Ax-Request-At (epoch seconds, epoch milliseconds or RFC3339
// with a zone) and rejects values more than maxClockSkew away from now.
func requestAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingRequestAt
	}
	var at time.Time
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			at = time.UnixMilli(n)
		} else {
			at = time.Unix(n, 0)
		}
	} else if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		at = t
	} else {
		return time.Time{}, errBadRequestAt
	}
	at = at.UTC()
	if d := now.Sub(at); d > maxClockSkew || d < -maxClockSkew {
		return time.Time{}, errSkewedRequestAt
	}
	return at, nil
}

// idempStore keeps idempotency entries in Redis. An entry is reserved with
// SETNX for provisionalLockTTL and replaced by the final response for ttl.
type idempStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (s idempStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s idempStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	return e, json.Unmarshal(v, &e)
}

func (s idempStore) finish(ctx context.Context, key string, e idempEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s idempStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
