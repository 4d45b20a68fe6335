package topology

import (
	"fmt"
	"strings"

	"github.com/kilianp07/homemind/core/model"
)

// DockConfig describes the charging base pseudo-target. Unlisted phrases
// resolve like Synonyms but are left out of the help message.
type DockConfig struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms"`
	Unlisted []string `json:"unlisted"`
}

// Config is the static zone topology of the robot's map.
type Config struct {
	Zones []model.Zone `json:"zones"`
	Dock  DockConfig   `json:"dock"`
}

// DefaultConfig returns the topology of the reference apartment.
func DefaultConfig() Config {
	return Config{
		Zones: []model.Zone{
			{ID: "living_room", Name: "客厅", RoomID: 16, Synonyms: []string{"去客厅", "打扫客厅", "中断当前任务去客厅"}},
			{ID: "bedroom", Name: "卧室", RoomID: 17, Synonyms: []string{"去卧室", "清扫卧室", "别扫了去卧室"}},
			{ID: "study", Name: "书房", RoomID: 19, Synonyms: []string{"去书房", "前往书房"}},
		},
		Dock: DockConfig{
			ID:       "dock",
			Name:     "充电座",
			Synonyms: []string{"回充", "返回充电座", "回家"},
			Unlisted: []string{"停止并回充"},
		},
	}
}

// SetDefaults fills an empty topology with DefaultConfig.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if len(c.Zones) == 0 {
		c.Zones = def.Zones
	}
	if c.Dock.ID == "" {
		c.Dock.ID = def.Dock.ID
	}
	if c.Dock.Name == "" {
		c.Dock.Name = def.Dock.Name
	}
	if c.Dock.Synonyms == nil {
		c.Dock.Synonyms = def.Dock.Synonyms
		if c.Dock.Unlisted == nil {
			c.Dock.Unlisted = def.Dock.Unlisted
		}
	}
}

// Validate checks that every phrase maps to exactly one target.
func (c Config) Validate() error {
	if c.Dock.ID == "" || c.Dock.Name == "" {
		return fmt.Errorf("topology: dock id and name are required")
	}
	seen := map[string]string{}
	claim := func(phrase, owner string) error {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			return fmt.Errorf("topology: empty phrase for %s", owner)
		}
		if prev, ok := seen[phrase]; ok && prev != owner {
			return fmt.Errorf("topology: phrase %q claimed by both %s and %s", phrase, prev, owner)
		}
		seen[phrase] = owner
		return nil
	}
	dockPhrases := append([]string{c.Dock.ID, c.Dock.Name}, c.Dock.Synonyms...)
	for _, p := range append(dockPhrases, c.Dock.Unlisted...) {
		if err := claim(p, c.Dock.ID); err != nil {
			return err
		}
	}
	for _, z := range c.Zones {
		if z.ID == "" || z.Name == "" {
			return fmt.Errorf("topology: zone id and name are required")
		}
		if z.RoomID <= 0 {
			return fmt.Errorf("topology: zone %s needs a positive room_id", z.ID)
		}
		for _, p := range append([]string{z.ID, z.Name}, z.Synonyms...) {
			if err := claim(p, z.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
