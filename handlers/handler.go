package handlers

import (
	"context"
	"time"

	"b0ase/cache"
	"b0ase/config"
	"b0ase/events"
	"b0ase/mailer"
	"b0ase/middleware"
	"b0ase/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sideEffectTimeout bounds mail, event and cache calls made after the
// request's own work is committed.
const sideEffectTimeout = 10 * time.Second

// Deps carries what every handler needs. Uploads may be nil when object
// storage is not configured; Cache may be nil when redis is not.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Auth    *middleware.Auth
	Cache   *cache.Cache
	Events  events.Publisher
	Mailer  mailer.Mailer
	Uploads storage.Uploader
	Log     *zap.Logger
}

func (d *Deps) publish(e events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := d.Events.Publish(ctx, e); err != nil {
		d.Log.Warn("publish event failed", zap.String("type", string(e.Type)), zap.String("aggregate_id", e.AggregateID), zap.Error(err))
	}
}

func (d *Deps) send(msg mailer.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	err := d.Mailer.Send(ctx, msg)
	if err != nil {
		d.Log.Warn("send mail failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
	}
	return err
}

func (d *Deps) invalidateGigs(ctx context.Context) {
	if err := d.Cache.InvalidateGigs(ctx); err != nil {
		d.Log.Warn("invalidate gig cache failed", zap.Error(err))
	}
}
