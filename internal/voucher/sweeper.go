package voucher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/clock"
	"github.com/Skotchmaster/shop_api/internal/events"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
)

const DefaultSweepInterval = time.Minute

type SweepResult struct {
	Activated int64 `json:"activated"`
	Expired   int64 `json:"expired"`
}

func (r SweepResult) Changed() bool {
	return r.Activated > 0 || r.Expired > 0
}

// Sweeper reconciles is_active with the activation and expiry dates.
type Sweeper struct {
	DB        *gorm.DB
	Clock     clock.Clock
	Interval  time.Duration
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Sweep runs the activation update and then the expiry update. The two
// statements are independent; a voucher past both dates ends up inactive.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.Clock.Now()
	var res SweepResult

	activated := s.DB.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("activation_date IS NOT NULL AND activation_date <= ? AND is_active = ?", now, false).
		Update("is_active", true)
	if activated.Error != nil {
		return res, fmt.Errorf("activate vouchers: %w", activated.Error)
	}
	res.Activated = activated.RowsAffected

	expired := s.DB.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("expiry_date <= ? AND is_active = ?", now, true).
		Update("is_active", false)
	if expired.Error != nil {
		return res, fmt.Errorf("expire vouchers: %w", expired.Error)
	}
	res.Expired = expired.RowsAffected

	return res, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A failed tick is logged and the next one runs as usual.
func (s *Sweeper) Run(ctx context.Context) error {
	l := s.logger()
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	l.Info("sweeper_started", "interval", interval.String())
	s.tick(ctx, l)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info("sweeper_stopping")
			return nil
		case <-t.C:
			s.tick(ctx, l)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context, l *slog.Logger) {
	res, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.Error("sweep_failed", "error", err)
		return
	}
	if !res.Changed() {
		l.Debug("sweep_done", "activated", 0, "expired", 0)
		return
	}

	l.Info("sweep_done", "activated", res.Activated, "expired", res.Expired)
	events.Emit(ctx, s.Publisher, l, events.TopicVouchers, "sweep", map[string]any{
		"type":      "vouchers_swept",
		"activated": res.Activated,
		"expired":   res.Expired,
		"at":        s.Clock.Now(),
	})
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger.With("component", "voucher_sweeper")
	}
	return logging.Discard()
}
