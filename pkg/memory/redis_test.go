package memory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to DIALOGLENS_TEST_REDIS_ADDR or skips.
func newTestRedis(t *testing.T, opts RedisOptions) *Redis {
	t.Helper()
	addr := os.Getenv("DIALOGLENS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DIALOGLENS_TEST_REDIS_ADDR not set")
	}

	opts.KeyPrefix = "dialoglens-test:" + t.Name() + ":"
	r, err := DialRedis(context.Background(), addr, "", 0, opts)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		r.ClearAll(context.Background())
		r.Close()
	})
	return r
}

func TestRedis_AppendTrimAndStatus(t *testing.T) {
	r := newTestRedis(t, RedisOptions{MaxTurns: 4})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := r.Append(ctx, "chat_1", pair(i)...); err != nil {
			t.Fatal(err)
		}
	}
	r.Append(ctx, "chat_2", pair(1)...)

	got, err := r.Turns(ctx, "chat_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[0].Content != "in-2" || got[3].Content != "out-3" {
		t.Errorf("unexpected turns %v", got)
	}

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.ConversationCount != 2 || st.TotalTurns != 6 || st.ConversationIDs[0] != "chat_1" {
		t.Errorf("unexpected status %+v", st)
	}

	if err := r.Clear(ctx, "chat_1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := r.Turns(ctx, "chat_1"); len(got) != 0 {
		t.Errorf("expected cleared key, got %v", got)
	}
	if err := r.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if st, _ := r.Status(ctx); st.ConversationCount != 0 {
		t.Errorf("expected empty status, got %+v", st)
	}
}

func TestRedis_IdleTTL(t *testing.T) {
	r := newTestRedis(t, RedisOptions{IdleTTL: time.Minute})
	ctx := context.Background()

	r.Append(ctx, "chat_1", pair(1)...)
	ttl, err := r.client.TTL(ctx, r.redisKey("chat_1")).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v", ttl)
	}
}

func TestRedis_RejectsInstructionTurns(t *testing.T) {
	// Validation happens before any round trip.
	r := NewRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), RedisOptions{})
	defer r.Close()

	if err := r.Append(context.Background(), "chat_1", Turn{Role: RoleInstruction}); err != ErrInstructionTurn {
		t.Fatalf("expected ErrInstructionTurn, got %v", err)
	}
}
