package cleanup

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s := New(nil, nil, logger, Config{})

	if s.cfg.PendingTimeout != 5*time.Minute {
		t.Fatalf("PendingTimeout = %s, want 5m", s.cfg.PendingTimeout)
	}
	if s.cfg.ExpiringSoonAfter != 3*time.Minute {
		t.Fatalf("ExpiringSoonAfter = %s, want 3m", s.cfg.ExpiringSoonAfter)
	}
	if s.cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("SweepInterval = %s, want 5m", s.cfg.SweepInterval)
	}
	if s.cfg.BatchLimit != 500 {
		t.Fatalf("BatchLimit = %d, want 500", s.cfg.BatchLimit)
	}
}

func TestConfigExpiringSoonClamped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// A soon-threshold beyond the timeout makes no sense; fall back.
	s := New(nil, nil, logger, Config{
		PendingTimeout:    10 * time.Minute,
		ExpiringSoonAfter: 20 * time.Minute,
	})

	if s.cfg.ExpiringSoonAfter != 3*time.Minute {
		t.Fatalf("ExpiringSoonAfter = %s, want 3m", s.cfg.ExpiringSoonAfter)
	}
}
