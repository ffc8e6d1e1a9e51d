package config

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/pixil98/go-errors"
)

// Config contains window settings
type Config struct {
	Width  int
	Height int
	Title  string
}

// PhysicsConfig contains the platformer tuning, in pixels and seconds
type PhysicsConfig struct {
	MoveSpeed      float64
	Gravity        float64
	JumpVelocity   float64 // negative is up
	MaxFallSpeed   float64
	PhaseThreshold float64 // dead zone for jump phase changes
	GroundEpsilon  float64 // how close a floor must be to allow a jump
	RotatedDamping float64 // vertical velocity kept after landing on a slope
	MaxFrameDelta  time.Duration
}

// PlayerConfig contains character dimensions, spawns and animation timing
type PlayerConfig struct {
	Width  float64
	Height float64

	OrangeSpawn sim.Point
	CyanSpawn   sim.Point

	AnimInterval time.Duration
	AnimFrames   int

	OrangeColor color.RGBA
	CyanColor   color.RGBA
}

// NetConfig contains shared store settings
type NetConfig struct {
	StoreURL     string
	WriteTimeout time.Duration
	SetupTimeout time.Duration
}

// LobbyConfig contains lobby settings
type LobbyConfig struct {
	MaxNameLength int
	Level         string
	GemSize       float64
}

// DebugConfig contains debug/testing options
type DebugConfig struct {
	ShowHitboxes bool // default for the H toggle before a profile is saved
	SkipLogin    bool
}

var C *Config
var Physics PhysicsConfig
var Player PlayerConfig
var Net NetConfig
var Lobby LobbyConfig
var Debug DebugConfig

// Shared RGBA color constants
var (
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow       = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Cyan         = color.RGBA{R: 0, G: 220, B: 255, A: 255}
	Red          = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	Blue         = color.RGBA{R: 0, G: 100, B: 255, A: 255}
	Green        = color.RGBA{R: 0, G: 255, B: 60, A: 255}
	BlackOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	Background   = color.RGBA{R: 20, G: 20, B: 30, A: 255}
)

func init() {
	C = &Config{
		Width:  960,
		Height: 960,
		Title:  "Twinflame",
	}

	Physics = PhysicsConfig{
		MoveSpeed:      350,
		Gravity:        1500,
		JumpVelocity:   -650,
		MaxFallSpeed:   1000,
		PhaseThreshold: 0.5,
		GroundEpsilon:  3,
		RotatedDamping: 0.3,
		MaxFrameDelta:  100 * time.Millisecond,
	}

	Player = PlayerConfig{
		Width:  35,
		Height: 64,

		OrangeSpawn: sim.Point{X: 81, Y: 830},
		CyanSpawn:   sim.Point{X: 81, Y: 703.1875},

		AnimInterval: 150 * time.Millisecond,
		AnimFrames:   5,

		OrangeColor: Orange,
		CyanColor:   Cyan,
	}

	Net = NetConfig{
		StoreURL:     envOr("TWINFLAME_STORE_URL", "nats://127.0.0.1:4222"),
		WriteTimeout: 2 * time.Second,
		SetupTimeout: 5 * time.Second,
	}

	Lobby = LobbyConfig{
		MaxNameLength: 32,
		Level:         "level1",
		GemSize:       32,
	}

	Debug = DebugConfig{}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SimConfig builds the simulator settings from the globals.
func SimConfig() sim.Config {
	c := sim.DefaultConfig()
	c.MoveSpeed = Physics.MoveSpeed
	c.Gravity = Physics.Gravity
	c.JumpVelocity = Physics.JumpVelocity
	c.MaxFallSpeed = Physics.MaxFallSpeed
	c.PhaseThreshold = Physics.PhaseThreshold
	c.GroundEpsilon = Physics.GroundEpsilon
	c.RotatedDamping = Physics.RotatedDamping
	c.PlayerW = Player.Width
	c.PlayerH = Player.Height
	c.AnimInterval = Player.AnimInterval
	c.AnimFrames = Player.AnimFrames
	c.DefaultGemSize = Lobby.GemSize
	c.Spawns = map[sim.Character]sim.Point{
		sim.CharacterOrange: Player.OrangeSpawn,
		sim.CharacterCyan:   Player.CyanSpawn,
	}
	return c
}

// Validate reports every setting that would break the game.
func Validate() error {
	el := errors.NewErrorList()
	if C.Width <= 0 || C.Height <= 0 {
		el.Add(fmt.Errorf("window size %dx%d must be positive", C.Width, C.Height))
	}
	if Physics.Gravity <= 0 {
		el.Add(fmt.Errorf("gravity %v must be positive", Physics.Gravity))
	}
	if Physics.JumpVelocity >= 0 {
		el.Add(fmt.Errorf("jump velocity %v must be negative", Physics.JumpVelocity))
	}
	if Physics.MaxFallSpeed <= 0 {
		el.Add(fmt.Errorf("max fall speed %v must be positive", Physics.MaxFallSpeed))
	}
	if Physics.PhaseThreshold < 0 {
		el.Add(fmt.Errorf("phase threshold %v must not be negative", Physics.PhaseThreshold))
	}
	if Physics.RotatedDamping < 0 || Physics.RotatedDamping > 1 {
		el.Add(fmt.Errorf("rotated damping %v must be within [0,1]", Physics.RotatedDamping))
	}
	if Player.Width <= 0 || Player.Height <= 0 {
		el.Add(fmt.Errorf("player size %vx%v must be positive", Player.Width, Player.Height))
	}
	if Player.AnimFrames <= 0 || Player.AnimInterval <= 0 {
		el.Add(fmt.Errorf("animation needs frames and an interval"))
	}
	if Net.StoreURL == "" {
		el.Add(fmt.Errorf("store url is empty"))
	}
	if Lobby.Level == "" {
		el.Add(fmt.Errorf("level name is empty"))
	}
	return el.Err()
}
