package scenes

import (
	"context"
	"image/color"
	"log"
	"sync"

	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/systems"
	"github.com/automoto/twinflame/ui"
	"github.com/hajimehoshi/ebiten/v2"
)

// LobbyScene lists sessions and runs the create, join, ready and start
// flow until the player's session starts.
type LobbyScene struct {
	sceneChanger SceneChanger
	env          *Env
	lobby        *lobby.Lobby
	lobbyUI      *ui.LobbyUI
	once         sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	events <-chan lobby.Event

	actionErr pending[struct{}]
	gems      pending[int64]
	resume    pending[bool]
}

func NewLobbyScene(sc SceneChanger, env *Env) *LobbyScene {
	return &LobbyScene{sceneChanger: sc, env: env}
}

func (ls *LobbyScene) Update() {
	ls.once.Do(ls.configure)
	ls.lobbyUI.Update()

	if _, ok, err := ls.actionErr.take(); ok {
		if err != nil {
			ls.lobbyUI.SetStatus(err.Error())
		} else {
			ls.lobbyUI.SetStatus("")
		}
	}
	if n, ok, err := ls.gems.take(); ok && err == nil {
		ls.lobbyUI.SetGems(n)
	}
	if playing, ok, _ := ls.resume.take(); ok && playing {
		log.Println("[lobby] game already running, resuming")
		ls.enterGame()
		return
	}

	for {
		select {
		case ev, ok := <-ls.events:
			if !ok {
				ls.events = nil
				return
			}
			if ls.handle(ev) {
				return
			}
		default:
			return
		}
	}
}

// handle applies one lobby event. It returns true once the scene has been
// left.
func (ls *LobbyScene) handle(ev lobby.Event) bool {
	switch e := ev.(type) {
	case lobby.SessionsChanged:
		ls.lobbyUI.SetSessions(e.Sessions, e.Mine)
	case lobby.StartSignal:
		log.Printf("[lobby] session %s started", e.SessionID)
		if err := systems.SetSession(e.SessionID); err != nil {
			log.Printf("Warning: could not remember session: %v", err)
		}
		if ls.env.Profile != nil {
			ls.env.Profile.SessionID = e.SessionID
		}
		ls.enterGame()
		return true
	}
	return false
}

func (ls *LobbyScene) enterGame() {
	ls.cancel()
	ls.sceneChanger.ChangeScene(NewGameScene(ls.sceneChanger, ls.env))
}

func (ls *LobbyScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})
	if ls.lobbyUI == nil {
		return
	}
	ls.lobbyUI.UI.Draw(screen)
}

func (ls *LobbyScene) configure() {
	p := ls.env.Profile
	ls.lobby = lobby.New(ls.env.Store, p.UID, p.Name)
	ls.ctx, ls.cancel = context.WithCancel(context.Background())

	ls.lobbyUI = ui.NewLobbyUI(p.UID, p.Name, ui.LobbyActions{
		Create: func(name string) {
			ls.run(func(ctx context.Context) error {
				_, err := ls.lobby.Create(ctx, name)
				return err
			})
		},
		Join: func(id string) {
			ls.run(func(ctx context.Context) error { return ls.lobby.Join(ctx, id) })
		},
		Leave: func(id string) {
			ls.run(func(ctx context.Context) error { return ls.lobby.Leave(ctx, id) })
		},
		SetReady: func(id string, ready bool) {
			ls.run(func(ctx context.Context) error { return ls.lobby.SetReady(ctx, id, ready) })
		},
		Start: func(id string) {
			ls.run(func(ctx context.Context) error { return ls.lobby.Start(ctx, id) })
		},
	})

	events, err := ls.lobby.Watch(ls.ctx)
	if err != nil {
		log.Printf("[lobby] watch failed: %v", err)
		ls.lobbyUI.SetStatus("Could not load sessions: " + err.Error())
	}
	ls.events = events

	go ls.loadUser()
}

// loadUser fetches the gem count and checks for a game to resume.
func (ls *LobbyScene) loadUser() {
	ctx, cancel := context.WithTimeout(ls.ctx, cfg.Net.SetupTimeout)
	defer cancel()
	u, err := ls.lobby.User(ctx)
	if err != nil {
		log.Printf("[lobby] read user failed: %v", err)
		ls.gems.finish(0, err)
		return
	}
	ls.gems.finish(u.GemCount, nil)
	ls.resume.finish(u.IsPlaying && u.CurrentGame != nil, nil)
}

func (ls *LobbyScene) run(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(ls.ctx, cfg.Net.WriteTimeout)
		defer cancel()
		err := fn(ctx)
		if err != nil {
			log.Printf("[lobby] %v", err)
		}
		ls.actionErr.finish(struct{}{}, err)
	}()
}
