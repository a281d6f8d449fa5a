package presets

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CustomName is the preset whose work/rest the user edits
const CustomName = "Custom"

var ErrInvalidPreset = errors.New("invalid preset")

// Preset is a named work/rest pair
type Preset struct {
	Name string
	Work time.Duration
	Rest time.Duration
}

func (p Preset) String() string {
	return fmt.Sprintf("%s %ds/%ds", p.Name, int(p.Work/time.Second), int(p.Rest/time.Second))
}

// Defaults returns the built-in presets in display order
func Defaults() []Preset {
	return []Preset{
		{Name: CustomName, Work: 45 * time.Second, Rest: 15 * time.Second},
		{Name: "Hit", Work: 40 * time.Second, Rest: 20 * time.Second},
		{Name: "Tabata", Work: 20 * time.Second, Rest: 10 * time.Second},
		{Name: "Emom", Work: 60 * time.Second, Rest: 0},
		{Name: "Amrap", Work: 60 * time.Second, Rest: 30 * time.Second},
	}
}

// Catalog is an ordered, read-only set of presets
type Catalog struct {
	presets []Preset
}

func NewCatalog(presets []Preset) *Catalog {
	c := &Catalog{}
	for _, p := range presets {
		c.put(p)
	}
	return c
}

func DefaultCatalog() *Catalog {
	return NewCatalog(Defaults())
}

// All returns a copy of the presets in display order
func (c *Catalog) All() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

func (c *Catalog) Len() int {
	return len(c.presets)
}

// Find looks a preset up by name, ignoring case
func (c *Catalog) Find(name string) (Preset, bool) {
	if i := c.Index(name); i >= 0 {
		return c.presets[i], true
	}
	return Preset{}, false
}

// Index returns the display position of name, or -1
func (c *Catalog) Index(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range c.presets {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// put replaces a preset with the same name or appends a new one
func (c *Catalog) put(p Preset) {
	if i := c.Index(p.Name); i >= 0 {
		c.presets[i] = p
		return
	}
	c.presets = append(c.presets, p)
}

type yamlPreset struct {
	Name        string `yaml:"name"`
	WorkSeconds int    `yaml:"work_seconds"`
	RestSeconds int    `yaml:"rest_seconds"`
}

type yamlPresets struct {
	Presets []yamlPreset `yaml:"presets"`
}

// LoadFile returns the built-in presets overlaid with the presets in path.
// A file preset replaces the built-in preset of the same name; new names are
// appended. An empty path yields the defaults.
func LoadFile(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}

	var fileData yamlPresets
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return nil, fmt.Errorf("parse presets yaml: %w", err)
	}

	for i, fp := range fileData.Presets {
		p, err := fp.preset()
		if err != nil {
			return nil, fmt.Errorf("presets[%d]: %w", i, err)
		}
		catalog.put(p)
	}
	return catalog, nil
}

// SaveFile writes the catalog in the format LoadFile reads
func SaveFile(path string, c *Catalog) error {
	fileData := yamlPresets{Presets: make([]yamlPreset, 0, c.Len())}
	for _, p := range c.presets {
		fileData.Presets = append(fileData.Presets, yamlPreset{
			Name:        p.Name,
			WorkSeconds: int(p.Work / time.Second),
			RestSeconds: int(p.Rest / time.Second),
		})
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal presets yaml: %w", err)
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write presets file: %w", err)
	}
	return nil
}

func (fp yamlPreset) preset() (Preset, error) {
	name := strings.TrimSpace(fp.Name)
	if name == "" {
		return Preset{}, fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if fp.WorkSeconds <= 0 {
		return Preset{}, fmt.Errorf("%w: %s work_seconds must be positive", ErrInvalidPreset, name)
	}
	if fp.RestSeconds < 0 {
		return Preset{}, fmt.Errorf("%w: %s rest_seconds cannot be negative", ErrInvalidPreset, name)
	}
	return Preset{
		Name: name,
		Work: time.Duration(fp.WorkSeconds) * time.Second,
		Rest: time.Duration(fp.RestSeconds) * time.Second,
	}, nil
}
