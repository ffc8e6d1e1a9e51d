package scenes

import (
	"sync"

	"github.com/automoto/twinflame/assets"
	"github.com/automoto/twinflame/shared/store"
	"github.com/automoto/twinflame/systems"
)

// SceneChanger allows scenes to trigger transitions
type SceneChanger interface {
	ChangeScene(scene interface{})
}

// Env is what every scene shares: the store connection, the local profile
// and the level cache.
type Env struct {
	Store   store.Store
	Levels  *assets.LevelLoader
	Profile *systems.Profile
}

// pending carries the result of a background call back to Update. Store
// calls never run on the game loop.
type pending[T any] struct {
	mu    sync.Mutex
	value T
	err   error
	done  bool
}

func (p *pending[T]) finish(v T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value, p.err, p.done = v, err, true
}

// take returns the result once, then resets.
func (p *pending[T]) take() (T, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	if !p.done {
		return zero, false, nil
	}
	v, err := p.value, p.err
	p.value, p.err, p.done = zero, nil, false
	return v, true, err
}
