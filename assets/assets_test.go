package assets

import (
	"testing"
	"time"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/pixil98/go-testutil"
)

func TestListLevelNames(t *testing.T) {
	names := NewLevelLoader().ListLevelNames()
	if len(names) == 0 || names[0] != "level1" {
		t.Fatalf("ListLevelNames() = %v", names)
	}
}

func TestLoadLevel(t *testing.T) {
	l := NewLevelLoader()
	level, err := l.LoadLevel("level1")
	if err != nil {
		t.Fatalf("LoadLevel() error = %v", err)
	}
	m := level.Map
	w, h := m.PixelSize()
	testutil.AssertEqual(t, "width", w, 960.0)
	testutil.AssertEqual(t, "height", h, 960.0)
	testutil.AssertEqual(t, "gems", len(m.Gems()), 5)
	if len(m.Collision()) == 0 {
		t.Error("no collision rects")
	}
	if len(m.FireExits()) == 0 || len(m.WaterExits()) == 0 {
		t.Error("missing exits")
	}

	again, _ := l.LoadLevel("level1")
	if again.Map != m {
		t.Error("second load was not cached")
	}

	if _, err := l.LoadLevel("missing"); err == nil {
		t.Error("LoadLevel(missing) error = nil")
	}
}

func TestSpawnsSettle(t *testing.T) {
	level := NewLevelLoader().MustLoadLevel("level1")
	now := time.Unix(0, 0)
	for _, ch := range []sim.Character{sim.CharacterOrange, sim.CharacterCyan} {
		s, err := sim.NewSession(level.Map, ch, sim.DefaultConfig(), nil)
		if err != nil {
			t.Fatalf("NewSession(%v) error = %v", ch, err)
		}
		for i := 0; i < 180; i++ {
			now = now.Add(16 * time.Millisecond)
			ev := s.Step(16*time.Millisecond, now)
			if ev.HazardHit {
				t.Fatalf("%v spawned into a hazard", ch)
			}
		}
		testutil.AssertEqual(t, ch.String()+" phase", s.Self().Phase, sim.PhaseIdle)
	}
}
