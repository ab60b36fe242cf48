package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// Catalog holds the room directory and the identity roster. Both are
// loaded from configuration at startup and read-only afterwards, so no
// locking is needed.
type Catalog struct {
	rooms           []models.Room
	byID            map[string]models.Room
	privilegedRoles []string
	roster          []models.Identity
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Rooms           []models.Room     `yaml:"rooms"`
	PrivilegedRoles []string          `yaml:"privileged_roles"`
	Roster          []models.Identity `yaml:"roster"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(file.Rooms, file.PrivilegedRoles, file.Roster)
}

// New builds a catalog from already-parsed entries, validating room
// ids. Insertion order of rooms is preserved for listing.
func New(rooms []models.Room, privilegedRoles []string, roster []models.Identity) (*Catalog, error) {
	c := &Catalog{
		byID:            make(map[string]models.Room, len(rooms)),
		privilegedRoles: privilegedRoles,
		roster:          roster,
	}

	for _, room := range rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("catalog: room %q has empty id", room.Name)
		}
		if _, dup := c.byID[room.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate room id %q", room.ID)
		}
		if room.Name == "" {
			room.Name = room.ID
		}
		c.byID[room.ID] = room
		c.rooms = append(c.rooms, room)
	}

	return c, nil
}

// Default returns the catalog used when no catalog file is configured:
// an open general room and a restricted board room accessible to the
// admin role.
func Default() *Catalog {
	c, _ := New(
		[]models.Room{
			{ID: "general", Name: "General"},
			{ID: "directiva", Name: "Directiva", Restricted: true},
		},
		[]string{"admin"},
		nil,
	)
	return c
}

// Rooms returns the full room list in catalog insertion order.
func (c *Catalog) Rooms() []models.Room {
	out := make([]models.Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Room looks up a room by id.
func (c *Catalog) Room(id string) (models.Room, bool) {
	room, ok := c.byID[id]
	return room, ok
}

// PrivilegedRoles returns the roles allowed into restricted rooms.
func (c *Catalog) PrivilegedRoles() []string {
	out := make([]string, len(c.privilegedRoles))
	copy(out, c.privilegedRoles)
	return out
}

// Roster returns the identity roster projection. Not authoritative:
// the session layer decides who the caller actually is.
func (c *Catalog) Roster() []models.Identity {
	out := make([]models.Identity, len(c.roster))
	copy(out, c.roster)
	return out
}
