package main

import (
	"flag"
	"image"
	"log"

	"github.com/automoto/twinflame/assets"
	"github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/fonts"
	"github.com/automoto/twinflame/scenes"
	"github.com/automoto/twinflame/shared/store/natsstore"
	"github.com/automoto/twinflame/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
}

// closer is implemented by scenes that hold store state on exit.
type closer interface {
	Close()
}

type Game struct {
	bounds image.Rectangle
	scene  Scene
}

// ChangeScene switches to a new scene
func (g *Game) ChangeScene(scene interface{}) {
	g.scene = scene.(Scene)
}

func NewGame(env *scenes.Env) *Game {
	g := &Game{
		bounds: image.Rectangle{},
	}

	if config.Debug.SkipLogin && env.Profile != nil {
		g.scene = scenes.NewLobbyScene(g, env)
	} else {
		g.scene = scenes.NewLoginScene(g, env)
	}

	return g
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		g.Close()
		return ebiten.Termination
	}
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	g.bounds = image.Rect(0, 0, config.C.Width, config.C.Height)
	return config.C.Width, config.C.Height
}

func (g *Game) Close() {
	if c, ok := g.scene.(closer); ok {
		c.Close()
	}
}

func main() {
	profileName := flag.String("profile", "twinflame", "local profile name, lets two clients share a machine")
	flag.StringVar(&config.Net.StoreURL, "store", config.Net.StoreURL, "store host NATS url")
	flag.BoolVar(&config.Debug.SkipLogin, "skip-login", config.Debug.SkipLogin, "reuse the saved profile")
	flag.Parse()

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := fonts.LoadDefaults(); err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}

	// Initialize persistence and load the saved profile
	if err := systems.InitPersistence(*profileName); err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
	}
	profile, err := systems.LoadProfile()
	if err != nil {
		log.Printf("Warning: Could not load profile: %v", err)
	}

	client, err := natsstore.Dial(config.Net.StoreURL, natsstore.WithTimeout(config.Net.WriteTimeout))
	if err != nil {
		log.Fatalf("Failed to connect to store at %s: %v", config.Net.StoreURL, err)
	}
	defer client.Close()
	log.Printf("[client] connected to %s", config.Net.StoreURL)

	ebiten.SetWindowSize(720, 720)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	g := NewGame(&scenes.Env{
		Store:   client,
		Levels:  assets.NewLevelLoader(),
		Profile: profile,
	})
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
