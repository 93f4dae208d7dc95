package verification

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksWithinWindow(t *testing.T) {
	rl := NewRateLimiter(time.Minute)

	first := rl.CheckAndMark("alice@example.com", TypeVerifyEmail)
	if !first.Allowed {
		t.Fatal("first request must be allowed")
	}

	second := rl.CheckAndMark("alice@example.com", TypeVerifyEmail)
	if second.Allowed {
		t.Fatal("second request within window must be blocked")
	}
	if second.RemainingSeconds < 1 || second.RemainingSeconds > 60 {
		t.Fatalf("unexpected remaining seconds: %d", second.RemainingSeconds)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute)

	if res := rl.CheckAndMark("alice@example.com", TypeVerifyEmail); !res.Allowed {
		t.Fatal("first request must be allowed")
	}

	// 不同类型和不同邮箱互不影响
	if res := rl.CheckAndMark("alice@example.com", TypeForgotPassword); !res.Allowed {
		t.Fatal("different code type must not share the window")
	}
	if res := rl.CheckAndMark("bob@example.com", TypeVerifyEmail); !res.Allowed {
		t.Fatal("different email must not share the window")
	}
}

func TestRateLimiterAllowsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(20 * time.Millisecond)

	if res := rl.CheckAndMark("alice@example.com", TypeVerifyEmail); !res.Allowed {
		t.Fatal("first request must be allowed")
	}

	time.Sleep(40 * time.Millisecond)

	if res := rl.CheckAndMark("alice@example.com", TypeVerifyEmail); !res.Allowed {
		t.Fatal("request after window must be allowed")
	}
}

func TestRateLimiterClear(t *testing.T) {
	rl := NewRateLimiter(time.Minute)

	rl.CheckAndMark("alice@example.com", TypeVerifyEmail)
	rl.Clear("alice@example.com", TypeVerifyEmail)

	if res := rl.CheckAndMark("alice@example.com", TypeVerifyEmail); !res.Allowed {
		t.Fatal("request after Clear must be allowed")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(10 * time.Millisecond)

	rl.CheckAndMark("alice@example.com", TypeVerifyEmail)
	rl.CheckAndMark("bob@example.com", TypeVerifyEmail)

	time.Sleep(30 * time.Millisecond)

	if removed := rl.Sweep(time.Now()); removed != 2 {
		t.Fatalf("expected 2 stale marks removed, got %d", removed)
	}
}
