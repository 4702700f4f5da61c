package storage

import (
	"context"
	"time"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

const (
	defaultSaveInterval = time.Minute
	finalSaveTimeout    = 5 * time.Second
)

type Snapshotter interface {
	Snapshot() []ledger.ResourceSnapshot
	Restore(snapshots []ledger.ResourceSnapshot) error
}

// Saver periodically dumps the ledger into a Store.
type Saver struct {
	store    Store
	ledger   Snapshotter
	interval time.Duration
	log      logger.Logger
}

func NewSaver(store Store, snapshotter Snapshotter, interval time.Duration, log logger.Logger) *Saver {
	if interval <= 0 {
		interval = defaultSaveInterval
	}

	return &Saver{
		store:    store,
		ledger:   snapshotter,
		interval: interval,
		log:      log.With("saver"),
	}
}

// Restore loads the stored state into the ledger. An empty store leaves
// the ledger as is.
func (s *Saver) Restore(ctx context.Context) error {
	snapshots, err := s.store.Load(ctx)
	if err != nil {
		return errors.WrapFail(err, "load snapshots")
	}
	if len(snapshots) == 0 {
		s.log.Infof("store is empty, starting from scratch")
		return nil
	}

	return errors.WrapFail(s.ledger.Restore(snapshots), "restore ledger")
}

func (s *Saver) Save(ctx context.Context) error {
	return errors.WrapFail(s.store.Save(ctx, s.ledger.Snapshot()), "save snapshots")
}

// Run saves the ledger every interval until ctx is done, then saves once
// more with a fresh context.
func (s *Saver) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := s.Save(ctx)
			if err != nil {
				s.log.Warn(err)
			}
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
			defer cancel()

			err := s.Save(finalCtx)
			if err != nil {
				return errors.WrapFail(err, "do final save")
			}
			s.log.Infof("final save done")
			return nil
		}
	}
}
