package scenes

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sync"
	"unicode/utf8"

	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/systems"
	"github.com/automoto/twinflame/ui"
	"github.com/hajimehoshi/ebiten/v2"
)

// LoginScene signs the player in as a guest and registers the user record.
type LoginScene struct {
	sceneChanger SceneChanger
	env          *Env
	loginUI      *ui.LoginUI
	once         sync.Once
	busy         bool
	result       pending[*systems.Profile]
}

func NewLoginScene(sc SceneChanger, env *Env) *LoginScene {
	return &LoginScene{sceneChanger: sc, env: env}
}

func (ls *LoginScene) Update() {
	ls.once.Do(ls.configure)
	ls.loginUI.Update()

	p, ok, err := ls.result.take()
	if !ok {
		return
	}
	ls.busy = false
	ls.loginUI.SetBusy(false)
	if err != nil {
		ls.loginUI.SetStatus(err.Error())
		return
	}
	ls.env.Profile = p
	ls.sceneChanger.ChangeScene(NewLobbyScene(ls.sceneChanger, ls.env))
}

func (ls *LoginScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})
	if ls.loginUI == nil {
		return
	}
	ls.loginUI.UI.Draw(screen)
}

func (ls *LoginScene) configure() {
	suggested := systems.NewGuestProfile()
	if ls.env.Profile != nil {
		suggested = ls.env.Profile
	}
	ls.loginUI = ui.NewLoginUI(suggested.Name, func(name string) {
		if ls.busy {
			return
		}
		ls.busy = true
		ls.loginUI.SetBusy(true)
		ls.loginUI.SetStatus("Signing in...")
		go ls.signIn(suggested, name)
	})
}

// signIn keeps the uid of an existing profile so a returning guest finds
// their gem count and any running game.
func (ls *LoginScene) signIn(p *systems.Profile, name string) {
	if name == "" {
		ls.result.finish(nil, fmt.Errorf("enter a name"))
		return
	}
	if utf8.RuneCountInString(name) > cfg.Lobby.MaxNameLength {
		ls.result.finish(nil, fmt.Errorf("name is longer than %d characters", cfg.Lobby.MaxNameLength))
		return
	}

	next := *p
	next.Name = name
	next.Guest = true

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Net.SetupTimeout)
	defer cancel()
	if err := lobby.EnsureUser(ctx, ls.env.Store, next.UID, next.Name, next.Guest); err != nil {
		log.Printf("[login] sign in failed: %v", err)
		ls.result.finish(nil, fmt.Errorf("could not reach the store: %w", err))
		return
	}
	if err := systems.SaveProfile(&next); err != nil {
		log.Printf("Warning: profile not saved: %v", err)
	}
	log.Printf("[login] signed in as %s (%s)", next.Name, next.UID)
	ls.result.finish(&next, nil)
}
