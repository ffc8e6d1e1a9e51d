package scenes

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/twinflame/assets"
	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/fonts"
	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/network"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/systems"
	"github.com/automoto/twinflame/systems/factory"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// gameSetup is everything loaded before the first frame.
type gameSetup struct {
	lobby   *lobby.Lobby
	level   assets.Level
	game    *sim.GameSession
	sync    *network.Synchronizer
	session string
	peerUID string
	gems    int64
}

// GameScene runs one cooperative game until a player ends it.
type GameScene struct {
	ecs          *ecs.ECS
	sceneChanger SceneChanger
	env          *Env
	once         sync.Once

	setup    pending[*gameSetup]
	teardown pending[struct{}]
	status   string

	state    *gameSetup
	cancel   context.CancelFunc
	peerGone atomic.Bool
	selfGone atomic.Bool
	leaving  bool

	// claimed holds the tab guard between ClaimTab and start, so a window
	// closed while loading still releases it.
	claimMu sync.Mutex
	claimed *lobby.Lobby
}

func NewGameScene(sc SceneChanger, env *Env) *GameScene {
	return &GameScene{sceneChanger: sc, env: env, status: "Loading..."}
}

func (gs *GameScene) Update() {
	gs.once.Do(gs.configure)

	if gs.ecs == nil {
		gs.awaitSetup()
		return
	}
	if gs.leaving {
		if _, ok, _ := gs.teardown.take(); ok {
			gs.sceneChanger.ChangeScene(NewLobbyScene(gs.sceneChanger, gs.env))
		}
		return
	}

	gs.ecs.Update()

	sess := gs.session()
	if sess.Exit == components.ExitNone {
		switch {
		case gs.peerGone.Load():
			log.Println("[game] partner left")
			sess.Exit = components.ExitPeerLeft
		case gs.selfGone.Load():
			log.Println("[game] no longer playing, back to lobby")
			sess.Exit = components.ExitInvalid
		case sess.Sync.State() == network.StateError:
			log.Printf("[game] sync failed: %v", sess.Sync.LastError())
			sess.Exit = components.ExitInvalid
		}
	}
	if sess.Exit != components.ExitNone {
		gs.leave(sess.Exit)
	}
}

func (gs *GameScene) Draw(screen *ebiten.Image) {
	screen.Fill(cfg.Background)
	if gs.ecs == nil || gs.leaving {
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(cfg.C.Width)/2, float64(cfg.C.Height)/2)
		op.PrimaryAlign = text.AlignCenter
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, gs.status, fonts.Bold.Get(), op)
		return
	}
	gs.ecs.Draw(screen)
}

func (gs *GameScene) configure() {
	go gs.load()
}

// load validates the game and restores both positions. It runs once, off
// the game loop.
func (gs *GameScene) load() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Net.SetupTimeout)
	defer cancel()

	p := gs.env.Profile
	lb := lobby.New(gs.env.Store, p.UID, p.Name)
	if err := lb.ClaimTab(ctx); err != nil {
		gs.setup.finish(nil, err)
		return
	}
	gs.setClaimed(lb)

	fail := func(err error) {
		gs.setClaimed(nil)
		if rerr := lb.ReleaseTab(ctx); rerr != nil {
			log.Printf("Warning: could not release tab guard: %v", rerr)
		}
		gs.setup.finish(nil, err)
	}

	u, err := lb.ValidateGame(ctx, p.SessionID)
	if err != nil {
		fail(err)
		return
	}
	sessionID := *u.CurrentGame
	peerUID := ""
	if u.PlayingWith != nil {
		peerUID = *u.PlayingWith
	}

	level, err := gs.env.Levels.LoadLevel(cfg.Lobby.Level)
	if err != nil {
		fail(err)
		return
	}

	syncer := network.NewSynchronizer(gs.env.Store, sessionID, p.UID,
		network.WithWriteTimeout(cfg.Net.WriteTimeout),
		network.WithDefaultSize(cfg.Player.Width, cfg.Player.Height))

	var start *sim.Point
	self, err := syncer.LastPosition(ctx, p.UID)
	if err != nil {
		fail(err)
		return
	}
	if self != nil {
		start = &sim.Point{X: self.X, Y: self.Y}
	}

	game, err := sim.NewSession(level.Map, sim.Character(u.Character), cfg.SimConfig(), start)
	if err != nil {
		fail(err)
		return
	}

	if peerUID != "" {
		peer, err := syncer.LastPosition(ctx, peerUID)
		if err != nil {
			fail(err)
			return
		}
		if peer != nil {
			game.SetRemote(syncer.Seed(peerUID, peer.Kinematics()))
		}
	}

	log.Printf("[game] entering %s as %s", sessionID, game.Character())
	gs.setup.finish(&gameSetup{
		lobby:   lb,
		level:   level,
		game:    game,
		sync:    syncer,
		session: sessionID,
		peerUID: peerUID,
		gems:    u.GemCount,
	}, nil)
}

func (gs *GameScene) setClaimed(lb *lobby.Lobby) {
	gs.claimMu.Lock()
	gs.claimed = lb
	gs.claimMu.Unlock()
}

func (gs *GameScene) awaitSetup() {
	st, ok, err := gs.setup.take()
	if !ok {
		return
	}
	switch {
	case errors.Is(err, lobby.ErrTabActive):
		log.Println("[game] another window holds the game")
		gs.sceneChanger.ChangeScene(NewBlockedScene(gs.sceneChanger, gs.env))
	case errors.Is(err, lobby.ErrSessionInvalid):
		log.Printf("[game] %v, back to lobby", err)
		if err := systems.ClearSession(); err != nil {
			log.Printf("Warning: could not clear session: %v", err)
		}
		gs.env.Profile.SessionID = ""
		gs.sceneChanger.ChangeScene(NewLobbyScene(gs.sceneChanger, gs.env))
	case err != nil:
		log.Printf("[game] setup failed: %v", err)
		gs.status = fmt.Sprintf("Could not load the game: %v", err)
	default:
		gs.start(st)
	}
}

func (gs *GameScene) start(st *gameSetup) {
	gs.state = st
	ctx, cancel := context.WithCancel(context.Background())
	gs.cancel = cancel

	go func() {
		if err := st.sync.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[sync] stopped: %v", err)
		}
	}()
	if st.peerUID != "" {
		peer, err := st.lobby.WatchPeer(ctx, st.peerUID)
		if err != nil {
			log.Printf("[game] cannot watch partner: %v", err)
		} else {
			go watchUntilStopped(peer, &gs.peerGone)
		}
	}
	self, err := st.lobby.WatchPlaying(ctx, gs.env.Profile.UID)
	if err != nil {
		log.Printf("[game] cannot watch own session: %v", err)
	} else {
		go watchUntilStopped(self, &gs.selfGone)
	}

	w := ecs.NewECS(donburi.NewWorld())
	factory.CreateLevel(w, st.level)
	factory.CreateSession(w, components.SessionData{
		ID:           st.session,
		PeerUID:      st.peerUID,
		Game:         st.game,
		Sync:         st.sync,
		Ledger:       lobby.NewLedger(gs.env.Store, gs.env.Profile.UID),
		Lobby:        st.lobby,
		GemCount:     st.gems,
		ShowHitboxes: gs.env.Profile.ShowHitboxes || cfg.Debug.ShowHitboxes,
	})
	factory.CreateLocalPlayer(w, gs.env.Profile.UID, gs.env.Profile.Name, st.game)
	factory.CreateRemotePlayer(w, st.peerUID, st.game)

	w.AddSystem(systems.UpdateInput)
	w.AddSystem(systems.UpdateControls)
	w.AddSystem(systems.NewSimulationSystem(time.Now))
	w.AddSystem(systems.UpdateOverlay)

	w.AddRenderer(cfg.Default, systems.DrawLevel)
	w.AddRenderer(cfg.Default, systems.DrawZones)
	w.AddRenderer(cfg.Default, systems.DrawGems)
	w.AddRenderer(cfg.Default, systems.DrawPlayers)
	w.AddRenderer(cfg.Default, systems.DrawHitboxes)
	w.AddRenderer(cfg.Default, systems.DrawHUD)
	w.AddRenderer(cfg.Overlay, systems.DrawOverlay)
	gs.ecs = w
}

// watchUntilStopped sets gone the first time playing reports false.
func watchUntilStopped(playing <-chan bool, gone *atomic.Bool) {
	for p := range playing {
		if !p {
			gone.Store(true)
			return
		}
	}
}

func (gs *GameScene) session() *components.SessionData {
	entry, _ := components.Session.First(gs.ecs.World)
	return components.Session.Get(entry)
}

// leave tears the game down in the background. Ending the game resets both
// players; a departed partner has already done that for us.
func (gs *GameScene) leave(reason components.ExitReason) {
	gs.leaving = true
	gs.status = "Leaving..."
	st := gs.state
	uid := gs.env.Profile.UID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Net.SetupTimeout)
		defer cancel()
		if err := st.sync.Flush(ctx); err != nil {
			log.Printf("[sync] final flush: %v", err)
		}
		gs.cancel()
		if reason == components.ExitEndGame {
			if err := st.lobby.EndGame(ctx, st.session, st.peerUID); err != nil {
				log.Printf("[game] end game failed: %v", err)
			}
		} else if err := st.lobby.ReleaseTab(ctx); err != nil {
			log.Printf("Warning: could not release tab guard: %v", err)
		}
		if err := systems.ClearSession(); err != nil {
			log.Printf("Warning: could not clear session: %v", err)
		}
		log.Printf("[game] %s left %s", uid, st.session)
		gs.teardown.finish(struct{}{}, nil)
	}()
	gs.env.Profile.SessionID = ""
}

// Close releases the tab guard when the window closes mid-game or while the
// game is still loading. The game itself stays running so the player can
// come back to it.
func (gs *GameScene) Close() {
	if gs.leaving {
		return
	}
	lb := gs.closeLobby()
	if lb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Net.WriteTimeout)
	defer cancel()
	if err := lb.ReleaseTab(ctx); err != nil {
		log.Printf("Warning: could not release tab guard: %v", err)
	}
}

// closeLobby stops the running game, if any, and returns the lobby holding
// the tab guard.
func (gs *GameScene) closeLobby() *lobby.Lobby {
	if gs.state != nil {
		gs.cancel()
		return gs.state.lobby
	}
	gs.claimMu.Lock()
	defer gs.claimMu.Unlock()
	lb := gs.claimed
	gs.claimed = nil
	return lb
}
