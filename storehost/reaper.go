package main

import (
	"context"
	"log"
	"time"

	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/shared/store"
)

const writeTimeout = 5 * time.Second

// Reaper deletes sessions nobody is in. Clients already do this when they
// see one, the reaper covers the case where no lobby is open.
type Reaper struct {
	store  store.Store
	stopCh chan struct{}
}

func NewReaper(st store.Store, every time.Duration) *Reaper {
	r := &Reaper{store: st, stopCh: make(chan struct{})}
	go r.cleanupLoop(every)
	return r
}

func (r *Reaper) Stop() {
	close(r.stopCh)
}

func (r *Reaper) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if _, err := r.Sweep(ctx); err != nil {
				log.Printf("[storehost] sweep failed: %v", err)
			}
			cancel()
		}
	}
}

// Sweep removes every session without players and returns their ids.
func (r *Reaper) Sweep(ctx context.Context) ([]string, error) {
	snap, err := r.store.Get(ctx, store.ServersRoot)
	if err != nil {
		return nil, err
	}
	var recs map[string]lobby.SessionRecord
	if err := snap.Decode(&recs); err != nil {
		return nil, err
	}
	var removed []string
	for id, rec := range recs {
		if len(rec.Players) > 0 {
			continue
		}
		if err := r.store.Remove(ctx, store.ServerPath(id)); err != nil {
			return removed, err
		}
		log.Printf("[storehost] removed empty session %q (id=%s)", rec.Name, id)
		removed = append(removed, id)
	}
	return removed, nil
}
