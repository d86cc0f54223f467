package circuit

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)}
	b := NewBreaker("test", Config{Threshold: threshold, Cooldown: cooldown}, zap.NewNop())
	b.now = clock.now
	return b, clock
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker("test", DefaultConfig(), nil)
	if b.State() != StateClosed {
		t.Errorf("initial state = %s, want closed", b.State())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		if err := b.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v, want errBoom", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn ran while breaker open")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(2, time.Second)

	_ = b.Execute(fail)
	_ = b.Execute(succeed)
	_ = b.Execute(fail)

	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{name: "probe succeeds", probe: succeed, want: StateClosed},
		{name: "probe fails", probe: fail, want: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := newTestBreaker(1, time.Minute)
			_ = b.Execute(fail)

			clock.t = clock.t.Add(time.Minute)
			_ = b.Execute(tt.probe)

			if b.State() != tt.want {
				t.Errorf("state = %s, want %s", b.State(), tt.want)
			}
		})
	}
}

func TestBreakerAllowsSingleProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute)
	_ = b.Execute(fail)
	clock.t = clock.t.Add(time.Minute)

	if err := b.allow(); err != nil {
		t.Fatalf("first probe rejected: %v", err)
	}
	if err := b.allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("second concurrent probe err = %v, want ErrOpen", err)
	}
}
