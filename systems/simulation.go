package systems

import (
	"context"
	"log"
	"time"

	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/filter"
)

type simulation struct {
	now  func() time.Time
	last time.Time
}

// NewSimulationSystem steps the local player once per frame with the wall
// time since the previous frame, then publishes the result. now is the
// clock, time.Now outside of tests.
func NewSimulationSystem(now func() time.Time) func(*ecs.ECS) {
	s := &simulation{now: now}
	return s.update
}

func (s *simulation) update(ecs *ecs.ECS) {
	sessEntry, ok := components.Session.First(ecs.World)
	if !ok {
		return
	}
	sess := components.Session.Get(sessEntry)
	if sess.Game == nil || sess.Exit != components.ExitNone {
		return
	}

	now := s.now()
	var dt time.Duration
	if !s.last.IsZero() {
		dt = now.Sub(s.last)
	}
	s.last = now
	if dt > cfg.Physics.MaxFrameDelta {
		dt = cfg.Physics.MaxFrameDelta
	}

	if sess.Sync != nil {
		if k, ok := sess.Sync.Latest(); ok {
			sess.Game.SetRemote(k)
		}
	}
	sess.Game.SetInput(getOrCreateInput(ecs).Move)

	ev := sess.Game.Step(dt, now)
	if ev.HazardHit {
		log.Printf("[game] hazard hit, both players back to spawn")
	}
	if n := len(ev.Collected); n > 0 {
		sess.GemCount += int64(n)
		if sess.Ledger != nil {
			go addGems(sess, int64(n))
		}
	}
	if ev.Won {
		startOverlay(ecs)
	}

	if sess.Sync != nil {
		sess.Sync.Publish(sess.Game.Self())
	}
	syncPlayers(ecs, sess)
}

// addGems records pickups. A failed increment is logged and dropped.
func addGems(sess *components.SessionData, n int64) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Net.WriteTimeout)
	defer cancel()
	if _, err := sess.Ledger.Add(ctx, n); err != nil {
		log.Printf("[gems] increment failed: %v", err)
	}
}

var (
	localQuery  = donburi.NewQuery(filter.Contains(tags.Local, components.Kinematics))
	remoteQuery = donburi.NewQuery(filter.Contains(tags.Remote, components.Kinematics))
)

// syncPlayers copies session state onto the player entities for rendering.
func syncPlayers(ecs *ecs.ECS, sess *components.SessionData) {
	self := sess.Game.Self()
	localQuery.Each(ecs.World, func(e *donburi.Entry) {
		components.Kinematics.SetValue(e, self)
	})

	remote, ok := sess.Game.Remote()
	remoteQuery.Each(ecs.World, func(e *donburi.Entry) {
		player := components.Player.Get(e)
		player.Visible = ok
		if ok {
			components.Kinematics.SetValue(e, remote)
		}
	})
}
