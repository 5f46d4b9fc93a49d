package jobs

import (
	"context"
	"time"

	"b0ase/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepTimeout = time.Minute

type Scheduler struct {
	cron       *cron.Cron
	db         *gorm.DB
	log        *zap.Logger
	staleAfter time.Duration
	now        func() time.Time
}

func NewScheduler(db *gorm.DB, log *zap.Logger, staleAfter time.Duration) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		db:         db,
		log:        log,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Start registers the invitation sweep on spec (standard cron syntax or a
// descriptor such as "@every 1h") and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("invite_sweep", spec))
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired, deleted, err := s.SweepInvites(ctx)
	if err != nil {
		s.log.Error("invite sweep failed", zap.Error(err))
		return
	}
	s.log.Info("invite sweep finished", zap.Int64("memberships_expired", expired), zap.Int64("client_invites_removed", deleted))
}

// SweepInvites expires project invitations nobody answered within the stale
// window and removes client invite codes past their expiry.
func (s *Scheduler) SweepInvites(ctx context.Context) (expired, deleted int64, err error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	res := db.Model(&models.ProjectMembership{}).
		Where("status = ? AND created_at < ?", models.MembershipInvited, now.Add(-s.staleAfter)).
		Update("status", models.MembershipExpired)
	if res.Error != nil {
		return 0, 0, res.Error
	}
	expired = res.RowsAffected

	res = db.Where("used = ? AND expires_at < ?", false, now).Delete(&models.Invite{})
	if res.Error != nil {
		return expired, 0, res.Error
	}
	return expired, res.RowsAffected, nil
}
