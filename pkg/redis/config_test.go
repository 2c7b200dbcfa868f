package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Alijeyrad/surveybot/config"
)

func TestFromCentralConfig(t *testing.T) {
	got := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", DB: 2, PoolSize: 30, ReadTimeoutSeconds: 9})

	if got.Addr != "cache:6379" || got.DB != 2 {
		t.Errorf("unexpected address fields: %+v", got)
	}
	if got.PoolSize != 30 {
		t.Errorf("expected pool size 30, got %d", got.PoolSize)
	}
	if got.MinIdleConns != DefaultConfig().MinIdleConns {
		t.Errorf("expected default min idle conns, got %d", got.MinIdleConns)
	}
	if got.ReadTimeout != 9*time.Second {
		t.Errorf("expected 9s read timeout, got %v", got.ReadTimeout)
	}
	if got.DialTimeout != 5*time.Second {
		t.Errorf("expected default dial timeout, got %v", got.DialTimeout)
	}
}

func TestNewRedis_EmptyAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
