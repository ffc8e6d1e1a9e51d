package systems

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	cfg "github.com/automoto/twinflame/config"
	"github.com/pixil98/go-testutil"
)

// brokenItems loads a profile but refuses every save.
type brokenItems struct{}

func (brokenItems) LoadItem(string) ([]byte, error) { return []byte(`{"uid":"alice"}`), nil }
func (brokenItems) SaveItem(string, []byte) error   { return errors.New("disk full") }

func TestToggleHitboxes(t *testing.T) {
	items := withItems(t)
	items[profileKey] = []byte(`{"uid":"alice"}`)
	h := newHarness(t, testLevel(t, ""))

	input := getOrCreateInput(h.ecs)
	input.Current[cfg.ActionToggleHitboxes] = true
	UpdateControls(h.ecs)

	testutil.AssertEqual(t, "shown", h.sess.ShowHitboxes, true)
	p, _ := LoadProfile()
	testutil.AssertEqual(t, "saved", p.ShowHitboxes, true)
}

func TestToggleHitboxesLogsSaveFailure(t *testing.T) {
	prev := gdataManager
	gdataManager = brokenItems{}
	t.Cleanup(func() { gdataManager = prev })

	var buf bytes.Buffer
	out := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(out) })

	h := newHarness(t, testLevel(t, ""))
	input := getOrCreateInput(h.ecs)
	input.Current[cfg.ActionToggleHitboxes] = true
	UpdateControls(h.ecs)

	testutil.AssertEqual(t, "still toggled", h.sess.ShowHitboxes, true)
	if !strings.Contains(buf.String(), "Could not save hitbox setting: disk full") {
		t.Errorf("log = %q, want the save failure", buf.String())
	}
}
