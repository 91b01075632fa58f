package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	domainUser "lending-backend/internal/domain/user"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyKey_ScopedToUser(t *testing.T) {
	reqID := strings.Repeat("a", 32)
	alice := domainUser.Principal{ID: 1, UserID: strings.Repeat("1", 32)}
	bob := domainUser.Principal{ID: 2, UserID: strings.Repeat("2", 32)}

	k := idempotencyKey("POST", "/loans", alice, reqID)
	assert.Equal(t, "idemp:post:/loans:"+alice.UserID+":"+reqID, k)
	assert.NotEqual(t, k, idempotencyKey("POST", "/loans", bob, reqID))
	assert.NotEqual(t, k, idempotencyKey("POST", "/loans/:application_id/disbursement", alice, reqID))

	// Principals built without a public id still get distinct keys.
	anon1 := idempotencyKey("POST", "/loans", domainUser.Principal{ID: 41}, reqID)
	anon2 := idempotencyKey("POST", "/loans", domainUser.Principal{ID: 42}, reqID)
	assert.Equal(t, "idemp:post:/loans:id41:"+reqID, anon1)
	assert.NotEqual(t, anon1, anon2)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", true},
		{" 3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88 ", "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", true},
		{strings.Repeat("A", 32), strings.Repeat("a", 32), true},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8", "", false},
		{"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88", "", false},
		{strings.Repeat("z", 32), "", false},
	}
	for _, tt := range tests {
		got, ok := requestID(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.raw)
		}
	}
}

func TestRequestAt(t *testing.T) {
	now := time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)

	got, err := requestAt(strconv.FormatInt(now.Unix(), 10), now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now))

	got, err = requestAt(strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10), now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Add(-time.Minute)))

	got, err = requestAt("2025-09-05T10:05:00+07:00", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Add(5*time.Minute)))
	assert.Equal(t, time.UTC, got.Location())

	for raw, want := range map[string]error{
		"":                     errMissingRequestAt,
		"2025-09-05T03:00:00":  errBadRequestAt,
		"yesterday":            errBadRequestAt,
		"2025-09-05T02:49:00Z": errSkewedRequestAt,
		"2025-09-05T03:11:00Z": errSkewedRequestAt,
		"0":                    errSkewedRequestAt,
	} {
		_, err := requestAt(raw, now)
		assert.True(t, errors.Is(err, want), "%q: got %v want %v", raw, err, want)
	}
}

func TestIdempStore_Lifecycle(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	ctx := context.Background()
	store := idempStore{rdb: rdb, ttl: 5 * time.Minute}
	key := idempotencyKey("POST", "/loans", domainUser.Principal{ID: 7, UserID: testUserID}, strings.Repeat("a", 32))

	entry := idempEntry{InProgress: true, BodySHA256: bodyHash([]byte(`{"amount":"1000"}`))}
	fresh, err := store.reserve(ctx, key, entry)
	require.NoError(t, err)
	require.True(t, fresh)
	assert.Equal(t, provisionalLockTTL, mr.TTL(key))

	fresh, err = store.reserve(ctx, key, entry)
	require.NoError(t, err)
	assert.False(t, fresh, "second reserve must lose")

	entry.InProgress = false
	entry.Code = 201
	entry.Body = []byte(`{"application_id":"x"}`)
	require.NoError(t, store.finish(ctx, key, entry))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	got, err := store.load(ctx, key)
	require.NoError(t, err)
	assert.False(t, got.InProgress)
	assert.Equal(t, 201, got.Code)
	assert.Equal(t, entry.BodySHA256, got.BodySHA256)

	require.NoError(t, store.release(ctx, key))
	_, err = store.load(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}
