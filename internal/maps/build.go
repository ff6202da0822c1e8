package maps

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
	"happy-place-engine/internal/script"
	"happy-place-engine/internal/world"
)

// TilesObject is the name given to the object built from a layer's tile grid.
const TilesObject = "tiles"

var (
	defaultFg = render.RGB{R: 170, G: 170, B: 170}.WithAlpha(255)
	unbounded = geom.R(-1<<20, -1<<20, 1<<21, 1<<21)
)

// Build turns a scene description into a live map. Scripts are compiled
// once per path and instantiated per object.
func Build(sc *Scene, log *zap.Logger) (*world.Map, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{sc: sc, log: log, programs: make(map[string]*script.Program)}
	return b.build()
}

type builder struct {
	sc       *Scene
	log      *zap.Logger
	programs map[string]*script.Program
}

func (b *builder) build() (*world.Map, error) {
	m := world.NewMap(b.sc.Name, b.log)

	if len(b.sc.Rules) > 0 {
		rules := world.NewCollisionTable()
		for _, r := range b.sc.Rules {
			res, err := world.ParseResult(r.Result)
			if err != nil {
				return nil, fmt.Errorf("rule %s/%s: %w", r.Moving, r.Stationary, err)
			}
			rules.Set(r.Moving, r.Stationary, res)
		}
		m.Rules = rules
	}

	for _, sl := range b.sc.Layers {
		l, err := b.layer(sl)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", sl.Name, err)
		}
		m.AddLayer(l)
		if len(sl.Tiles) > 0 {
			tiles, err := buildTiles(sl)
			if err != nil {
				return nil, fmt.Errorf("layer %q tiles: %w", sl.Name, err)
			}
			l.Add(tiles)
		}
		for _, so := range sl.Objects {
			o, err := b.object(so)
			if err != nil {
				return nil, fmt.Errorf("layer %q: %w", sl.Name, err)
			}
			l.Add(o)
		}
	}

	for _, sc := range b.sc.Cameras {
		c, err := b.camera(m, sc)
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", sc.Name, err)
		}
		m.AddCamera(c)
	}

	b.log.Info("scene built",
		zap.String("scene", b.sc.Name),
		zap.Int("layers", len(b.sc.Layers)),
		zap.Int("cameras", len(b.sc.Cameras)),
		zap.Int("scripts", len(b.programs)),
	)
	return m, nil
}

func (b *builder) layer(sl Layer) (*world.Layer, error) {
	l := world.NewLayer(sl.Name, sl.Collides)
	l.Visible = !sl.Hidden
	l.MaxPush = sl.MaxPush
	if sl.Alpha != nil {
		l.Alpha = uint8(*sl.Alpha)
	}
	if sl.Tint != nil {
		var err error
		if l.Fg, err = ParseColor(sl.Tint.Fg, render.Transparent); err != nil {
			return nil, err
		}
		if l.Bg, err = ParseColor(sl.Tint.Bg, render.Transparent); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (b *builder) object(so Object) (*world.Object, error) {
	o := world.NewObject(so.Name, geom.Pt(so.Pos.X, so.Pos.Y))
	for i, st := range so.Textures {
		t, err := buildTexture(st)
		if err != nil {
			return nil, fmt.Errorf("object %q texture %d: %w", so.Name, i, err)
		}
		o.AddTexture(t)
	}
	for i, sc := range so.Colliders {
		c, err := buildCollider(sc)
		if err != nil {
			return nil, fmt.Errorf("object %q collider %d: %w", so.Name, i, err)
		}
		if _, err := o.AddCollider(c); err != nil {
			return nil, err
		}
	}
	if so.Animation != nil {
		a, err := buildAnimation(*so.Animation)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", so.Name, err)
		}
		o.Animation = a
	}
	if so.Script != "" {
		prog, err := b.program(so.Script)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", so.Name, err)
		}
		o.Behavior = prog.Instantiate()
	}
	return o, nil
}

func buildAnimation(sa Animation) (*world.Animation, error) {
	steps := make([]world.AnimStep, len(sa.Steps))
	for i, ss := range sa.Steps {
		op, err := world.ParseAnimOp(ss.Op)
		if err != nil {
			return nil, fmt.Errorf("animation step %d: %w", i, err)
		}
		steps[i] = world.AnimStep{Op: op, Texture: ss.Texture, Point: geom.Pt(ss.Pos.X, ss.Pos.Y), Ticks: ss.Ticks}
	}
	a := world.NewAnimation(sa.Loop, steps...)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (b *builder) program(path string) (*script.Program, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.sc.Dir, path)
	}
	if p, ok := b.programs[path]; ok {
		return p, nil
	}
	p, err := script.LoadFile(path)
	if err != nil {
		return nil, err
	}
	b.programs[path] = p
	return p, nil
}

func (b *builder) camera(m *world.Map, sc Camera) (*world.Camera, error) {
	c := world.NewCamera(sc.Name, geom.Pt(sc.Pos.X, sc.Pos.Y), geom.UPt(uint32(sc.Size.X), uint32(sc.Size.Y)))
	if sc.Background != "" {
		bg, err := ParseColor(sc.Background, render.RGBA{A: 255})
		if err != nil {
			return nil, err
		}
		c.Background = render.Cell{Ch: ' ', Bg: bg.RGB()}
	}
	c.Layers = LayerRefs(m, sc.Layers)
	if sc.Follow != "" {
		o, ok := m.FindObject(sc.Follow)
		if !ok {
			return nil, fmt.Errorf("follow target %q not found", sc.Follow)
		}
		c.Follow(o.Ref(), SceneBounds(b.sc))
	}
	return c, nil
}

// LayerRefs resolves layer names to IDs. No names means every layer.
func LayerRefs(m *world.Map, names []string) []registry.ID[world.Layer] {
	if len(names) == 0 {
		return m.LayerIDs()
	}
	ids := make([]registry.ID[world.Layer], 0, len(names))
	for _, n := range names {
		if l, ok := m.LayerByName(n); ok {
			ids = append(ids, l.ID())
		}
	}
	return ids
}

// SceneBounds is the tile-grid extent of a scene, or an effectively
// unbounded rectangle if it has no tiles.
func SceneBounds(sc *Scene) geom.Rect {
	v := sc.Bounds()
	if v.X == 0 || v.Y == 0 {
		return unbounded
	}
	return geom.R(0, 0, uint32(v.X), uint32(v.Y))
}

func buildTexture(st Texture) (*render.Texture, error) {
	fg, err := ParseColor(st.Fg, defaultFg)
	if err != nil {
		return nil, err
	}
	bg, err := ParseColor(st.Bg, render.Transparent)
	if err != nil {
		return nil, err
	}

	var t *render.Texture
	if st.Rect != nil {
		size, err := geom.ToUPoint(geom.Pt(st.Rect.X, st.Rect.Y))
		if err != nil {
			return nil, fmt.Errorf("rect: %w", err)
		}
		ch := ' '
		if r := []rune(st.Char); len(r) > 0 {
			ch = r[0]
		}
		t = render.NewTexture(size, render.CellA{Ch: ch, Fg: fg, Bg: bg})
	} else {
		t = render.Write(st.Lines, fg, bg)
	}
	t.Offset = geom.Pt(st.Offset.X, st.Offset.Y)
	return t, nil
}

func buildCollider(sc Collider) (world.Collider, error) {
	off := geom.Pt(sc.Offset.X, sc.Offset.Y)
	if sc.Mask != nil {
		return world.MaskCollider(sc.Tag, off, sc.Mask), nil
	}
	size, err := geom.ToUPoint(geom.Pt(sc.Size.X, sc.Size.Y))
	if err != nil {
		return world.Collider{}, fmt.Errorf("size: %w", err)
	}
	return world.RectCollider(sc.Tag, off, size), nil
}

// buildTiles renders a tile grid into one object with one mask collider per
// tag used in the legend.
func buildTiles(sl Layer) (*world.Object, error) {
	rows := make([][]rune, len(sl.Tiles))
	for y, r := range sl.Tiles {
		rows[y] = []rune(r)
	}
	w := len(rows[0])
	tex := render.NewTexture(geom.UPt(uint32(w), uint32(len(rows))), render.Blank)

	type look struct {
		cell render.CellA
		tag  string
	}
	looks := make(map[rune]look, len(sl.Legend))
	var tags []string
	for key, tile := range sl.Legend {
		k := []rune(key)
		if len(k) != 1 {
			return nil, fmt.Errorf("legend key %q must be one character", key)
		}
		ch := k[0]
		if r := []rune(tile.Char); len(r) > 0 {
			ch = r[0]
		}
		fg, err := ParseColor(tile.Fg, defaultFg)
		if err != nil {
			return nil, fmt.Errorf("tile %q: %w", tile.Name, err)
		}
		bg, err := ParseColor(tile.Bg, render.Transparent)
		if err != nil {
			return nil, fmt.Errorf("tile %q: %w", tile.Name, err)
		}
		looks[k[0]] = look{cell: render.CellA{Ch: ch, Fg: fg, Bg: bg}, tag: tile.Tag}
		if tile.Tag != "" && !slices.Contains(tags, tile.Tag) {
			tags = append(tags, tile.Tag)
		}
	}
	slices.Sort(tags)

	for y, row := range rows {
		for x, r := range row {
			if lk, ok := looks[r]; ok {
				if err := tex.Set(x, y, lk.cell); err != nil {
					return nil, err
				}
			}
		}
	}

	o := world.NewObject(TilesObject, geom.Point{})
	o.AddTexture(tex)
	for _, tag := range tags {
		mask := make([]string, len(rows))
		for y, row := range rows {
			var sb strings.Builder
			for _, r := range row {
				if lk, ok := looks[r]; ok && lk.tag == tag {
					sb.WriteByte('#')
				} else {
					sb.WriteByte(' ')
				}
			}
			mask[y] = sb.String()
		}
		if _, err := o.AddCollider(world.MaskCollider(tag, geom.Point{}, mask)); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ParseColor accepts a palette name, "#rrggbb", "#rrggbbaa" or "none".
// Empty input yields def.
func ParseColor(s string, def render.RGBA) (render.RGBA, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case "none", "transparent":
		return render.Transparent, nil
	}
	if c, ok := render.NamedColor(s); ok {
		return c.WithAlpha(255), nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return render.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return render.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return render.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
