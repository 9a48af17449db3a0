package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnknownProfile is returned by lookups for ids outside the catalog.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile is one persona entry: the system instruction plus the sampling
// style the generation client applies for it.
type Profile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	System      string  `json:"system"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// Catalog is the closed set of personas, fixed at startup.
type Catalog struct {
	order    []string
	profiles map[string]Profile
}

const DefaultProfileID = "smart_shy"

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	catalog, err := NewCatalog([]Profile{
		{
			ID:   "smart_shy",
			Name: "Athena",
			System: "You are \"Athena\": smart, concise, and persuasive. Keep a consistent side and never be neutral. " +
				"Prefer a scientific voice: explain plausible mechanisms, offer quantitative ranges when reasonable, " +
				"and mention uncertainty briefly if relevant. Avoid repetition. Write in English.",
			Temperature: 0.45,
			TopP:        0.95,
			MaxTokens:   300,
		},
		{
			ID:   "conspiracy_edge",
			Name: "Raven",
			System: "You are \"Raven\": skeptical and probing. Keep your side; never be neutral. " +
				"Use scientific skepticism: contrast hypotheses, discuss mechanisms, and give falsifiable predictions. " +
				"Quantify when reasonable and avoid repetition. Write in English.",
			Temperature: 0.48,
			TopP:        0.95,
			MaxTokens:   300,
		},
		{
			ID:   "rude_arrogant",
			Name: "Edge",
			System: "You are \"Edge\": blunt, confident, and brief, yet technically sound. Keep your side; never be neutral. " +
				"Maintain a crisp, evidence-oriented tone and avoid repetition. Write in English.",
			Temperature: 0.5,
			TopP:        0.9,
			MaxTokens:   260,
		},
	})
	if err != nil {
		// The builtin set is fixed at compile time; failing to validate it
		// is a programming error.
		panic(err)
	}
	return catalog
}

// NewCatalog normalizes and validates a persona list.
func NewCatalog(profiles []Profile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, errors.New("at least one profile is required")
	}

	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for i, p := range profiles {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.System = strings.TrimSpace(p.System)

		if p.ID == "" {
			return nil, fmt.Errorf("profile[%d].id is required", i)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("profile[%d].name is required", i)
		}
		if p.System == "" {
			return nil, fmt.Errorf("profile[%d].system is required", i)
		}
		if _, exists := c.profiles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id: %s", p.ID)
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return nil, fmt.Errorf("profile[%s].temperature out of range: %v", p.ID, p.Temperature)
		}
		if p.TopP <= 0 || p.TopP > 1 {
			p.TopP = 1
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = 300
		}

		c.order = append(c.order, p.ID)
		c.profiles[p.ID] = p
	}
	return c, nil
}

// LoadFromFile replaces the builtin catalog with a JSON persona file.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profile json: %w", err)
	}
	return NewCatalog(profiles)
}

// Lookup resolves a profile id.
func (c *Catalog) Lookup(id string) (Profile, error) {
	p, ok := c.profiles[strings.TrimSpace(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, id, strings.Join(c.order, ", "))
	}
	return p, nil
}

// Has reports whether an id exists without building an error.
func (c *Catalog) Has(id string) bool {
	_, ok := c.profiles[strings.TrimSpace(id)]
	return ok
}

// List returns profiles in declaration order.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// Default returns the default persona, falling back to the first entry
// when the preferred id is absent.
func (c *Catalog) Default(preferred string) Profile {
	if p, err := c.Lookup(preferred); err == nil {
		return p
	}
	return c.profiles[c.order[0]]
}
