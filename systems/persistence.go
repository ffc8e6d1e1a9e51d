package systems

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata"
)

// Profile is the per-install state kept between runs.
type Profile struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Guest        bool   `json:"guest"`
	SessionID    string `json:"sessionId,omitempty"`
	ShowHitboxes bool   `json:"showHitboxes"`
}

const profileKey = "profile"

// itemStore is the part of *gdata.Manager the profile needs.
type itemStore interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

var gdataManager itemStore

// InitPersistence opens the gdata store for the profile. appName scopes the
// storage so two clients on one machine keep separate profiles.
func InitPersistence(appName string) error {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
		return err
	}
	gdataManager = m
	return nil
}

// NewGuestProfile creates a guest identity with a random display name.
func NewGuestProfile() *Profile {
	return &Profile{
		UID:   uuid.NewString(),
		Name:  fmt.Sprintf("guest_%d", rand.IntN(1000000)),
		Guest: true,
	}
}

// LoadProfile returns the saved profile, or nil if there is none.
func LoadProfile() (*Profile, error) {
	if gdataManager == nil {
		return nil, nil
	}

	data, err := gdataManager.LoadItem(profileKey)
	if err != nil {
		log.Printf("Warning: Could not load profile: %v", err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("Warning: Could not parse saved profile: %v", err)
		return nil, err
	}
	return &p, nil
}

// SaveProfile writes p to disk.
func SaveProfile(p *Profile) error {
	if gdataManager == nil || p == nil {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("Warning: Could not serialize profile: %v", err)
		return err
	}
	if err := gdataManager.SaveItem(profileKey, data); err != nil {
		log.Printf("Warning: Could not save profile: %v", err)
		return err
	}
	return nil
}

// ClearSession forgets the remembered session id.
func ClearSession() error {
	p, err := LoadProfile()
	if err != nil || p == nil {
		return err
	}
	p.SessionID = ""
	return SaveProfile(p)
}

// SetSession remembers the session the player was sent into.
func SetSession(id string) error {
	p, err := LoadProfile()
	if err != nil || p == nil {
		return err
	}
	p.SessionID = id
	return SaveProfile(p)
}

// SaveShowHitboxes persists the hitbox overlay toggle.
func SaveShowHitboxes(show bool) error {
	p, err := LoadProfile()
	if err != nil || p == nil {
		return err
	}
	p.ShowHitboxes = show
	return SaveProfile(p)
}
