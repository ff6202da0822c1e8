package maps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vec is a point or size in a scene file.
type Vec struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Scene is the on-disk description of a world.Map.
type Scene struct {
	Name    string   `json:"name" yaml:"name"`
	Spawn   Vec      `json:"spawn" yaml:"spawn"`
	Rules   []Rule   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Layers  []Layer  `json:"layers" yaml:"layers"`
	Cameras []Camera `json:"cameras,omitempty" yaml:"cameras,omitempty"`

	// Dir is the directory the scene was loaded from; script paths are
	// resolved against it.
	Dir string `json:"-" yaml:"-"`
}

// Rule declares a collision result for a tag pair. When a scene has no
// rules the default solid/pushable/trigger table applies.
type Rule struct {
	Moving     string `json:"moving" yaml:"moving"`
	Stationary string `json:"stationary" yaml:"stationary"`
	Result     string `json:"result" yaml:"result"`
}

// Layer is one layer of a scene. Tiles and Legend describe a static grid
// that becomes a single object; Objects are placed individually.
type Layer struct {
	Name     string          `json:"name" yaml:"name"`
	Collides bool            `json:"collides" yaml:"collides"`
	Hidden   bool            `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Alpha    *int            `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Tint     *Tint           `json:"tint,omitempty" yaml:"tint,omitempty"`
	MaxPush  int             `json:"max_push,omitempty" yaml:"max_push,omitempty"`
	Tiles    []string        `json:"tiles,omitempty" yaml:"tiles,omitempty"`
	Legend   map[string]Tile `json:"legend,omitempty" yaml:"legend,omitempty"`
	Objects  []Object        `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// Tint paints a layer's colors over everything beneath it.
type Tint struct {
	Fg string `json:"fg,omitempty" yaml:"fg,omitempty"`
	Bg string `json:"bg,omitempty" yaml:"bg,omitempty"`
}

// Tile defines the look and collider tag of one legend character.
type Tile struct {
	Char string `json:"char" yaml:"char"`
	Fg   string `json:"fg" yaml:"fg"`
	Bg   string `json:"bg,omitempty" yaml:"bg,omitempty"`
	Tag  string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// Object is a placed entity.
type Object struct {
	Name      string     `json:"name" yaml:"name"`
	Pos       Vec        `json:"pos" yaml:"pos"`
	Textures  []Texture  `json:"textures,omitempty" yaml:"textures,omitempty"`
	Colliders []Collider `json:"colliders,omitempty" yaml:"colliders,omitempty"`
	Script    string     `json:"script,omitempty" yaml:"script,omitempty"`
	Animation *Animation `json:"animation,omitempty" yaml:"animation,omitempty"`
}

// Animation is a step list played on the object every tick. Op is one of
// place, move, select, show, hide, place_texture, move_texture or wait;
// Pos is the target or delta and Ticks the length of a wait.
type Animation struct {
	Loop  bool       `json:"loop,omitempty" yaml:"loop,omitempty"`
	Steps []AnimStep `json:"steps" yaml:"steps"`
}

type AnimStep struct {
	Op      string `json:"op" yaml:"op"`
	Texture int    `json:"texture,omitempty" yaml:"texture,omitempty"`
	Pos     Vec    `json:"pos,omitempty" yaml:"pos,omitempty"`
	Ticks   int    `json:"ticks,omitempty" yaml:"ticks,omitempty"`
}

// Texture is either text Lines or a filled Rect of Char.
type Texture struct {
	Lines  []string `json:"lines,omitempty" yaml:"lines,omitempty"`
	Rect   *Vec     `json:"rect,omitempty" yaml:"rect,omitempty"`
	Char   string   `json:"char,omitempty" yaml:"char,omitempty"`
	Fg     string   `json:"fg,omitempty" yaml:"fg,omitempty"`
	Bg     string   `json:"bg,omitempty" yaml:"bg,omitempty"`
	Offset Vec      `json:"offset" yaml:"offset"`
}

// Collider is either a Size rectangle or a Mask of rows, where any
// non-space character is solid.
type Collider struct {
	Tag    string   `json:"tag" yaml:"tag"`
	Size   *Vec     `json:"size,omitempty" yaml:"size,omitempty"`
	Mask   []string `json:"mask,omitempty" yaml:"mask,omitempty"`
	Offset Vec      `json:"offset" yaml:"offset"`
}

// Camera is a named viewport over a list of layers.
type Camera struct {
	Name       string   `json:"name" yaml:"name"`
	Pos        Vec      `json:"pos" yaml:"pos"`
	Size       Vec      `json:"size" yaml:"size"`
	Layers     []string `json:"layers,omitempty" yaml:"layers,omitempty"`
	Background string   `json:"background,omitempty" yaml:"background,omitempty"`
	Follow     string   `json:"follow,omitempty" yaml:"follow,omitempty"`
}

// Load reads a scene from a .yaml, .yml or .json file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	sc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	sc.Dir = filepath.Dir(path)
	return sc, nil
}

// Parse decodes a scene. ext selects the format and must include the dot.
func Parse(data []byte, ext string) (*Scene, error) {
	var sc Scene
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("parse scene JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("parse scene YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scene format %q", ext)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// IsSceneFile reports whether path has a scene file extension.
func IsSceneFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Validate checks structure that can be verified without building.
func (s *Scene) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scene has no name")
	}
	layers := make(map[string]bool, len(s.Layers))
	objects := make(map[string]bool)
	for _, l := range s.Layers {
		if l.Name == "" {
			return fmt.Errorf("layer without a name")
		}
		if layers[l.Name] {
			return fmt.Errorf("duplicate layer name %q", l.Name)
		}
		layers[l.Name] = true
		if l.Alpha != nil && (*l.Alpha < 0 || *l.Alpha > 255) {
			return fmt.Errorf("layer %q: alpha %d out of range 0-255", l.Name, *l.Alpha)
		}
		if err := validateTiles(l); err != nil {
			return fmt.Errorf("layer %q: %w", l.Name, err)
		}
		for _, o := range l.Objects {
			if o.Name == "" {
				return fmt.Errorf("layer %q: object without a name", l.Name)
			}
			objects[o.Name] = true
			for i, c := range o.Colliders {
				if (c.Size == nil) == (c.Mask == nil) {
					return fmt.Errorf("object %q collider %d: exactly one of size or mask is required", o.Name, i)
				}
				if c.Size != nil && (c.Size.X < 0 || c.Size.Y < 0) {
					return fmt.Errorf("object %q collider %d: negative size", o.Name, i)
				}
			}
			for i, t := range o.Textures {
				if (t.Rect == nil) == (t.Lines == nil) {
					return fmt.Errorf("object %q texture %d: exactly one of lines or rect is required", o.Name, i)
				}
			}
			if o.Animation != nil && len(o.Animation.Steps) == 0 {
				return fmt.Errorf("object %q: animation has no steps", o.Name)
			}
		}
	}
	for _, r := range s.Rules {
		if r.Moving == "" || r.Stationary == "" {
			return fmt.Errorf("rule with empty tag")
		}
	}
	for _, c := range s.Cameras {
		if c.Size.X <= 0 || c.Size.Y <= 0 {
			return fmt.Errorf("camera %q: size must be positive", c.Name)
		}
		for _, ln := range c.Layers {
			if !layers[ln] {
				return fmt.Errorf("camera %q references unknown layer %q", c.Name, ln)
			}
		}
		if c.Follow != "" && !objects[c.Follow] {
			return fmt.Errorf("camera %q follows unknown object %q", c.Name, c.Follow)
		}
	}
	return nil
}

func validateTiles(l Layer) error {
	if len(l.Tiles) == 0 {
		return nil
	}
	width := len([]rune(l.Tiles[0]))
	for y, row := range l.Tiles {
		if n := len([]rune(row)); n != width {
			return fmt.Errorf("row %d has %d tiles, expected %d", y, n, width)
		}
		for _, r := range row {
			if _, ok := l.Legend[string(r)]; !ok && r != ' ' {
				return fmt.Errorf("row %d: tile %q missing from legend", y, r)
			}
		}
	}
	return nil
}

// Bounds returns the extent of the largest tile grid, used to clamp cameras.
func (s *Scene) Bounds() Vec {
	var b Vec
	for _, l := range s.Layers {
		if len(l.Tiles) == 0 {
			continue
		}
		b.X = max(b.X, len([]rune(l.Tiles[0])))
		b.Y = max(b.Y, len(l.Tiles))
	}
	return b
}

// LoadDir loads every scene file in dir, indexed by scene name.
func LoadDir(dir string) (map[string]*Scene, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenes directory: %w", err)
	}

	all := make(map[string]*Scene)
	for _, entry := range entries {
		if entry.IsDir() || !IsSceneFile(entry.Name()) {
			continue
		}
		sc, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if _, exists := all[sc.Name]; exists {
			return nil, fmt.Errorf("duplicate scene name %q in %s", sc.Name, entry.Name())
		}
		all[sc.Name] = sc
	}
	return all, nil
}

// DefaultScene returns a walled courtyard used when no scene file is
// available.
func DefaultScene() *Scene {
	w, h := 60, 30
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		for x := 0; x < w; x++ {
			if x == 0 || x == w-1 || y == 0 || y == h-1 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows[y] = sb.String()
	}

	return &Scene{
		Name:  "Default",
		Spawn: Vec{X: w / 2, Y: h / 2},
		Layers: []Layer{
			{
				Name:     "ground",
				Collides: true,
				Tiles:    rows,
				Legend: map[string]Tile{
					".": {Char: ".", Fg: "green", Name: "grass"},
					"#": {Char: "#", Fg: "gray", Name: "wall", Tag: "solid"},
				},
				Objects: []Object{
					{
						Name:      "crate",
						Pos:       Vec{X: w/2 + 3, Y: h / 2},
						Textures:  []Texture{{Lines: []string{"▣"}, Fg: "yellow"}},
						Colliders: []Collider{{Tag: "pushable", Size: &Vec{X: 1, Y: 1}}},
					},
				},
			},
		},
	}
}
