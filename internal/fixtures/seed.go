package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"localfund/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial content of the fixture backend.
type Seed struct {
	Members          []SeedMember            `json:"members"`
	Restaurants      []model.Restaurant      `json:"restaurants"`
	Menus            []model.MenuItem        `json:"menus"`
	Specialties      []model.Specialty       `json:"specialties"`
	Posts            []model.Post            `json:"posts"`
	Comments         []model.Comment         `json:"comments"`
	Notifications    []SeedNotification      `json:"notifications"`
	Locations        []SeedLocation          `json:"locations"`
	BusinessRequests []model.BusinessRequest `json:"businessRequests"`
	Wishlist         []model.WishlistItem    `json:"wishlist"`
	ForOneSlots      []model.ForOneSlot      `json:"forOneSlots"`
}

// SeedMember is a member with a plain password.
type SeedMember struct {
	model.Member
	Password string `json:"password"`
}

// SeedNotification is a notification addressed to a member.
type SeedNotification struct {
	model.Notification
	MemberEmail string `json:"memberEmail"`
}

// SeedLocation is a saved location owned by a member.
type SeedLocation struct {
	model.MemberLocation
	MemberEmail string `json:"memberEmail"`
}

// DefaultSeed returns the embedded seed.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultSeed)
}

// ParseSeed decodes YAML seed data. Keys use the backend's JSON names, so the
// document is decoded generically and re-read through the JSON tags.
func ParseSeed(data []byte) (Seed, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to convert seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(encoded, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to decode seed: %w", err)
	}
	return seed, nil
}
