package habits

import (
	"context"
	"fmt"
	"time"

	"github.com/personal-organizer/organizer/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const sweepBatchSize = 200

// Sweeper periodically reconciles every active habit so the stored
// aggregates stay fresh for consumers that read the table directly.
type Sweeper struct {
	db         *gorm.DB
	reconciler *Reconciler
	interval   time.Duration
}

// NewSweeper constructs a sweeper. It returns nil when interval is not
// positive, which disables sweeping.
func NewSweeper(conn *gorm.DB, reconciler *Reconciler, interval time.Duration) *Sweeper {
	if conn == nil || reconciler == nil || interval <= 0 {
		return nil
	}
	return &Sweeper{db: conn, reconciler: reconciler, interval: interval}
}

// Start runs the sweep loop in the background until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("habit sweeper started (interval=%s)", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := s.SweepOnce(ctx)
			if err != nil {
				log.WithError(err).Warn("habit sweeper: sweep failed")
				continue
			}
			log.Debugf("habit sweeper: reconciled %d habits", swept)
		}
	}
}

// SweepOnce reconciles all active habits in batches and returns how many
// were processed. A failing habit is logged and skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("habit sweeper: nil db")
	}
	swept := 0
	lastID := ""
	for {
		if errCtx := ctx.Err(); errCtx != nil {
			return swept, errCtx
		}
		var batch []models.Habit
		errFind := s.db.WithContext(ctx).
			Where("status = ? AND id > ?", models.HabitStatusActive, lastID).
			Order("id ASC").
			Limit(sweepBatchSize).
			Find(&batch).Error
		if errFind != nil {
			return swept, persistenceError("load sweep batch", errFind)
		}
		if len(batch) == 0 {
			return swept, nil
		}
		for i := range batch {
			if errReconcile := s.reconciler.Reconcile(ctx, &batch[i]); errReconcile != nil {
				log.WithError(errReconcile).WithField("habit_id", batch[i].ID).Warn("habit sweeper: reconcile failed")
				continue
			}
			swept++
		}
		lastID = batch[len(batch)-1].ID
	}
}
