package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("allows five attempts per window", func(t *testing.T) {
		_, client := newTestRedis(t)
		rl := NewRateLimiter(client)

		for i := 1; i <= DefaultMaxLoginAttempts; i++ {
			allowed, remaining, err := rl.CheckLoginAttempt(ctx, "1.2.3.4", "root@x.io")
			require.NoError(t, err)
			require.True(t, allowed, "attempt %d", i)
			require.Equal(t, int64(DefaultMaxLoginAttempts-i), remaining)
		}

		allowed, remaining, err := rl.CheckLoginAttempt(ctx, "1.2.3.4", "root@x.io")
		require.NoError(t, err)
		require.False(t, allowed)
		require.Zero(t, remaining)
	})

	t.Run("counter keys ignore email case", func(t *testing.T) {
		_, client := newTestRedis(t)
		rl := NewRateLimiter(client)

		_, _, err := rl.CheckLoginAttempt(ctx, "ip", "Root@X.io")
		require.NoError(t, err)

		remaining, err := rl.GetRemainingAttempts(ctx, "ip", "root@x.io")
		require.NoError(t, err)
		require.Equal(t, int64(DefaultMaxLoginAttempts-1), remaining)
	})

	t.Run("window expiry restores attempts", func(t *testing.T) {
		mr, client := newTestRedis(t)
		rl := NewRateLimiter(client)

		for i := 0; i < DefaultMaxLoginAttempts+1; i++ {
			_, _, err := rl.CheckLoginAttempt(ctx, "ip", "a@x.io")
			require.NoError(t, err)
		}

		mr.FastForward(DefaultLoginWindow + time.Second)

		allowed, _, err := rl.CheckLoginAttempt(ctx, "ip", "a@x.io")
		require.NoError(t, err)
		require.True(t, allowed)
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		_, client := newTestRedis(t)
		rl := NewRateLimiter(client)

		_, _, err := rl.CheckLoginAttempt(ctx, "ip", "a@x.io")
		require.NoError(t, err)
		require.NoError(t, rl.ResetLoginAttempts(ctx, "ip", "a@x.io"))

		remaining, err := rl.GetRemainingAttempts(ctx, "ip", "a@x.io")
		require.NoError(t, err)
		require.Equal(t, int64(DefaultMaxLoginAttempts), remaining)
	})
}
