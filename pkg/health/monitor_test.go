package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMonitorCheckAll(t *testing.T) {
	redisUp := false
	dbErr := error(nil)

	m := NewMonitor(0, zap.NewNop())
	m.Register(&PingChecker{
		Dependency: "database",
		Mandatory:  true,
		Ping:       func(context.Context) error { return dbErr },
	})
	m.Register(&PingChecker{
		Dependency: "redis",
		Enabled:    func() bool { return redisUp },
		Ping:       func(context.Context) error { return errors.New("refused") },
	})

	results, healthy := m.CheckAll(context.Background())
	if !healthy {
		t.Fatal("healthy = false with database up and redis disabled")
	}
	if results["redis"].Status != StatusDisabled {
		t.Errorf("redis status = %s, want disabled", results["redis"].Status)
	}

	redisUp = true
	if results, healthy = m.CheckAll(context.Background()); !healthy {
		t.Error("optional dependency failure marked service unhealthy")
	}
	if results["redis"].Status != StatusUnhealthy {
		t.Errorf("redis status = %s, want unhealthy", results["redis"].Status)
	}

	dbErr = errors.New("connection refused")
	if _, healthy = m.CheckAll(context.Background()); healthy {
		t.Error("required dependency failure not reported")
	}

	db, ok := m.GetResult("database")
	if !ok || db.CheckCount != 3 || db.FailureCount != 1 {
		t.Errorf("database result = %+v", db)
	}
}

func TestMonitorStartStop(t *testing.T) {
	calls := make(chan struct{}, 10)
	m := NewMonitor(10*time.Millisecond, nil)
	m.Register(&PingChecker{
		Dependency: "database",
		Mandatory:  true,
		Ping: func(context.Context) error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil
		},
	})

	m.Start()
	defer m.Stop()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("background check never ran")
	}
}
