package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/automoto/twinflame/shared/collision"
	"github.com/automoto/twinflame/shared/gamemath"
	"github.com/automoto/twinflame/shared/tilemap"
)

var ErrNoCharacter = errors.New("no character assigned")

// Events reports what happened during a Step.
type Events struct {
	HazardHit bool
	Won       bool
	Collected []int // gem ids picked up this step
}

// GameSession is the simulation context of one client: the map, the local
// player it owns, a read-only mirror of the partner and the gem set.
type GameSession struct {
	cfg      Config
	level    *tilemap.Map
	resolver *collision.Resolver
	zones    Zones
	canvasW  float64
	canvasH  float64

	character Character
	self      Kinematics
	remote    *Kinematics
	gems      []Gem

	input        Input
	jumpReleased bool
	anim         animClock
	won          bool
}

// NewSession places the local player at start, or at its character spawn
// when start is nil.
func NewSession(level *tilemap.Map, ch Character, cfg Config, start *Point) (*GameSession, error) {
	if !ch.Valid() {
		return nil, fmt.Errorf("new session: %w", ErrNoCharacter)
	}
	if level == nil {
		return nil, errors.New("new session: nil map")
	}

	w, h := level.PixelSize()
	params := collision.Params{
		Gravity:        cfg.Gravity,
		MaxFallSpeed:   cfg.MaxFallSpeed,
		GroundEpsilon:  cfg.GroundEpsilon,
		RotatedDamping: cfg.RotatedDamping,
	}

	s := &GameSession{
		cfg:          cfg,
		level:        level,
		resolver:     collision.NewResolver(collision.FromObjects(level.Collision()), params, w, h),
		zones:        ZonesFromMap(level, cfg),
		canvasW:      w,
		canvasH:      h,
		character:    ch,
		gems:         GemsFromMap(level, cfg.DefaultGemSize),
		jumpReleased: true,
		anim:         animClock{interval: cfg.AnimInterval, frames: cfg.AnimFrames},
	}

	pos := cfg.Spawn(ch)
	if start != nil {
		pos = *start
	}
	s.self = Kinematics{
		X:     pos.X,
		Y:     pos.Y,
		W:     cfg.PlayerW,
		H:     cfg.PlayerH,
		Color: ch.Color(),
		Phase: PhaseIdle,
	}
	return s, nil
}

func (s *GameSession) Character() Character { return s.character }
func (s *GameSession) Self() Kinematics     { return s.self }
func (s *GameSession) Map() *tilemap.Map    { return s.level }
func (s *GameSession) Gems() []Gem          { return s.gems }
func (s *GameSession) Won() bool            { return s.won }
func (s *GameSession) Frame() int           { return s.anim.frame }
func (s *GameSession) Config() Config       { return s.cfg }

// Remote returns the partner mirror, if one has been seen.
func (s *GameSession) Remote() (Kinematics, bool) {
	if s.remote == nil {
		return Kinematics{}, false
	}
	return *s.remote, true
}

// SetRemote replaces the partner mirror with the latest replicated state.
func (s *GameSession) SetRemote(k Kinematics) {
	s.remote = &k
}

// SetInput stores the action snapshot for the next Step.
func (s *GameSession) SetInput(in Input) {
	s.input = in
}

// Step advances the local player by dt. now drives the animation clock.
func (s *GameSession) Step(dt time.Duration, now time.Time) Events {
	if dt < 0 {
		dt = 0
	}
	s.anim.tick(now)
	if s.won {
		return Events{Won: true}
	}
	secs := dt.Seconds()
	in := s.input

	// Horizontal input.
	dx := 0.0
	if in.Left {
		dx -= s.cfg.MoveSpeed * secs
		s.self.Facing = DirLeft
	} else if in.Right {
		s.self.Facing = DirRight
	}
	if in.Right {
		dx += s.cfg.MoveSpeed * secs
	}
	s.self.Moving = in.Moving()
	s.self.X = gamemath.ClampFloat(s.self.X+dx, 0, math.Max(0, s.canvasW-s.self.W))

	body := bodyOf(s.self)
	s.resolver.HorizontalPass(&body)

	// Jump fires only on a press after a release. The latch closes on a
	// successful jump and reopens when the key is let go.
	if !in.Jump {
		s.jumpReleased = true
	} else if s.jumpReleased && s.resolver.Grounded(body) {
		body.VY = s.cfg.JumpVelocity
		s.jumpReleased = false
	}

	s.resolver.VerticalPass(&body, secs)

	if body.Bottom() > s.canvasH {
		body.Y = s.canvasH - body.H
		body.VY = 0
	}

	s.self.X, s.self.Y, s.self.VY = body.X, body.Y, body.VY
	resting := body.Bottom() >= s.canvasH || s.resolver.Grounded(body)
	s.self.Phase = DerivePhase(body.VY, resting, s.cfg.PhaseThreshold)

	var ev Events
	if s.hazardHit() {
		s.ResetToSpawn()
		ev.HazardHit = true
	}

	if s.zones.WinCondition(s.players()) {
		s.won = true
		s.self.Moving = false
		ev.Won = true
	}

	ev.Collected = CollectGems(s.gems, bodyOf(s.self))
	return ev
}

// hazardHit checks both players against their own hazard layers, so either
// client punishes a fall it observes.
func (s *GameSession) hazardHit() bool {
	if s.zones.InHazard(s.character, s.self) {
		return true
	}
	if s.remote == nil {
		return false
	}
	return s.zones.InHazard(s.character.Other(), *s.remote)
}

// ResetToSpawn sends both players back to their spawns.
func (s *GameSession) ResetToSpawn() {
	spawn := s.cfg.Spawn(s.character)
	s.self.X, s.self.Y = spawn.X, spawn.Y
	s.self.VY = 0
	s.self.Phase = PhaseIdle
	s.self.Moving = false

	if s.remote != nil {
		spawn := s.cfg.Spawn(s.character.Other())
		s.remote.X, s.remote.Y = spawn.X, spawn.Y
		s.remote.Phase = PhaseIdle
		s.remote.Moving = false
	}
}

func (s *GameSession) players() map[Character]Kinematics {
	players := map[Character]Kinematics{s.character: s.self}
	if s.remote != nil {
		players[s.character.Other()] = *s.remote
	}
	return players
}

// CurrentAnimation returns the local sprite set and frame.
func (s *GameSession) CurrentAnimation() (string, int) {
	return Animation(s.self), s.anim.frame
}
