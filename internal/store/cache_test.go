package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jimikki-app/backend/internal/logging"
)

// unreachableRedis points at a closed port so every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedStore_MissFillsCacheAndHitSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockStore(ctrl)
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)

	inner.EXPECT().GetUserData(gomock.Any(), "a@example.com").Return(`{"v":1}`, nil).Times(1)

	cached := NewCachedStore(inner, rdb, time.Minute, logging.Nop())
	for i := 0; i < 3; i++ {
		got, err := cached.GetUserData(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, `{"v":1}`, got)
	}

	stored, err := mr.Get(cacheKey("a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, stored)
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("a@example.com")))
}

func TestCachedStore_MissingDocumentIsNotCached(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	cached := NewCachedStore(NewMemoryStore(), rdb, time.Minute, logging.Nop())

	_, err := cached.GetUserData(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(cacheKey("nobody@example.com")))
}

func TestCachedStore_PutWritesThrough(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)
	cached := NewCachedStore(NewMemoryStore(), rdb, time.Minute, logging.Nop())

	require.NoError(t, cached.PutUserData(ctx, "a@example.com", `{"v":1}`))
	got, err := cached.GetUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, got)

	require.NoError(t, cached.PutUserData(ctx, "a@example.com", `{"v":2}`))
	got, err = cached.GetUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, got)

	stored, err := mr.Get(cacheKey("a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, stored)
}

// interleavedStore runs onRead after the wrapped read completes, before its
// result is returned, once.
type interleavedStore struct {
	*MemoryStore
	onRead func()
}

func (s *interleavedStore) GetUserData(ctx context.Context, email string) (string, error) {
	data, err := s.MemoryStore.GetUserData(ctx, email)
	if f := s.onRead; f != nil {
		s.onRead = nil
		f()
	}
	return data, err
}

func TestCachedStore_SlowReadDoesNotOverwriteNewerSave(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniRedis(t)
	inner := &interleavedStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.PutUserData(ctx, "a@example.com", `{"v":"old"}`))

	cached := NewCachedStore(inner, rdb, time.Minute, logging.Nop())
	inner.onRead = func() {
		require.NoError(t, cached.PutUserData(ctx, "a@example.com", `{"v":"new"}`))
	}

	got, err := cached.GetUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"old"}`, got, "the read started before the save")

	got, err = cached.GetUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"new"}`, got)
}

func TestCachedStore_FallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	cached := NewCachedStore(NewMemoryStore(), unreachableRedis(t), time.Minute, logging.Nop())
	defer cached.Close()

	require.NoError(t, cached.PutUserData(ctx, "a@example.com", `{"v":1}`))

	got, err := cached.GetUserData(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, got)

	_, err = cached.GetUserData(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_PassesThroughOtherOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockStore(ctrl)
	ctx := context.Background()

	inner.EXPECT().GetSheetID(ctx, "a@example.com").Return("sheet-1", nil)
	inner.EXPECT().PutSheetID(ctx, "a@example.com", "sheet-2").Return(nil)
	inner.EXPECT().ListUserEmails(ctx, int32(10), "").Return([]string{"a@example.com"}, "", nil)
	inner.EXPECT().Ping(ctx).Return(nil)

	cached := NewCachedStore(inner, unreachableRedis(t), time.Minute, logging.Nop())

	id, err := cached.GetSheetID(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)
	require.NoError(t, cached.PutSheetID(ctx, "a@example.com", "sheet-2"))

	emails, next, err := cached.ListUserEmails(ctx, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, emails)
	assert.Empty(t, next)
	assert.NoError(t, cached.Ping(ctx))
}

func TestCachedStore_PutErrorSkipsCacheWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockStore(ctrl)
	ctx := context.Background()

	inner.EXPECT().PutUserData(ctx, "a@example.com", "{}").Return(assert.AnError)

	cached := NewCachedStore(inner, unreachableRedis(t), time.Minute, logging.Nop())
	assert.ErrorIs(t, cached.PutUserData(ctx, "a@example.com", "{}"), assert.AnError)
}

func TestNewRedisClient(t *testing.T) {
	c := NewRedisClient("redis://localhost:6380/2")
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	c = NewRedisClient("cache:6379")
	assert.Equal(t, "cache:6379", c.Options().Addr)
}

func TestPageTokens(t *testing.T) {
	assert.Empty(t, EncodePageToken(""))

	key, err := DecodePageToken(EncodePageToken("user@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", key)

	_, err = DecodePageToken("%%%")
	assert.Error(t, err)
}
