package render

import (
	"fmt"

	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/highlight"
	"github.com/jsphweid/fretboard/note"
)

type Kind string

const (
	Rect   Kind = "rect"
	Line   Kind = "line"
	Circle Kind = "circle"
	Text   Kind = "text"
)

// Shape is one drawing primitive. Which fields matter depends on Kind:
// rects use X/Y/Width/Height, lines X/Y/X2/Y2, circles X/Y/R, text X/Y.
type Shape struct {
	Kind        Kind    `json:"kind"`
	ID          string  `json:"id,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	X2          float64 `json:"x2,omitempty"`
	Y2          float64 `json:"y2,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	R           float64 `json:"r,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity"`
	Text        string  `json:"text,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	Anchor      string  `json:"anchor,omitempty"`
}

// Glyph is a clickable note: a circle with the pitch name inside. Inactive
// glyphs are drawn fully transparent so they still receive pointer events.
type Glyph struct {
	Position board.Position `json:"position"`
	Pitch    note.Pitch     `json:"-"`
	Name     string         `json:"name"`
	Active   bool           `json:"active"`
	Selected bool           `json:"selected"`
	Color    string         `json:"color"`
	Opacity  float64        `json:"opacity"`
	// empty when the tooltip is suppressed
	Tooltip string `json:"tooltip,omitempty"`
	Circle  Shape  `json:"circle"`
	Label   Shape  `json:"label"`
}

type Scene struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Shapes  []Shape `json:"shapes"`
	Glyphs  []Glyph `json:"glyphs"`
	Tooltip struct {
		Background string `json:"background"`
		Text       string `json:"text"`
	} `json:"tooltip"`
}

type frame struct {
	xmin, xmax, xdel float64
	ymin, ymax, ydel float64
}

// Render draws the whole diagram from scratch. It never reads state other
// than its arguments, so calling it after every mutation is the redraw.
func Render(b board.Board, hl *highlight.State, tuning []note.Pitch, markers []config.Marker, cfg config.Fretboard) *Scene {
	geo := cfg.Geometry
	numStrings := b.Strings()
	frets := b.Frets()

	s := &Scene{
		Width:  geo.Width,
		Height: geo.Height(numStrings),
	}
	s.Tooltip.Background = cfg.Palette.TooltipBackground
	s.Tooltip.Text = cfg.Palette.TooltipText

	f := frame{
		xmin: geo.MarginLeft,
		xmax: geo.Width - geo.MarginRight,
		ymin: geo.MarginTop,
		ymax: s.Height - geo.MarginBottom,
	}
	if numStrings > 1 {
		f.ydel = (f.ymax - f.ymin) / float64(numStrings-1)
	}
	if frets > 0 {
		f.xdel = (f.xmax - f.xmin) / float64(frets)
	}

	s.drawBackground(f, cfg)
	s.drawFrets(f, frets, cfg)
	s.drawStrings(f, b, hl, tuning, cfg)
	s.drawMarkers(f, frets, numStrings, markers, cfg)
	s.drawNotes(f, b, hl, cfg)
	return s
}

// add appends a fully opaque shape.
func (s *Scene) add(shape Shape) {
	shape.Opacity = 1
	s.Shapes = append(s.Shapes, shape)
}

func (s *Scene) drawBackground(f frame, cfg config.Fretboard) {
	s.add(Shape{
		Kind:   Rect,
		X:      f.xmin,
		Y:      f.ymin,
		Width:  f.xmax - f.xmin,
		Height: f.ymax - f.ymin,
		Fill:   cfg.Palette.Background,
	})
}

func (s *Scene) drawFrets(f frame, frets int, cfg config.Fretboard) {
	width := cfg.Geometry.FretWidth
	for j := 0; j <= frets; j++ {
		x := f.xmin + float64(j)*f.xdel
		// outline
		s.add(Shape{Kind: Line, X: x, X2: x, Y: f.ymin - 12, Y2: f.ymax + 12,
			Stroke: cfg.Palette.FretOutline, StrokeWidth: width + 3})
		// inside of fret
		s.add(Shape{Kind: Line, X: x, X2: x, Y: f.ymin - 10, Y2: f.ymax + 10,
			Stroke: cfg.Palette.Fret, StrokeWidth: width})
		if j != 0 {
			s.add(Shape{Kind: Text, X: x - 5, Y: f.ymax + 28, Text: fmt.Sprint(j),
				Fill: cfg.Palette.String, FontSize: 16})
		}
	}

	// baseline
	s.add(Shape{Kind: Line, X: f.xmin, X2: f.xmin, Y: f.ymin - 10, Y2: f.ymax + 10,
		Stroke: cfg.Palette.FretOutline, StrokeWidth: width})
}

func (s *Scene) drawStrings(f frame, b board.Board, hl *highlight.State, tuning []note.Pitch, cfg config.Fretboard) {
	sp := cfg.SpellingMode()
	r := cfg.Geometry.NoteRadius / 2
	for i := range b {
		y := f.ymin + float64(i)*f.ydel
		open, _ := b.Open(i)
		if i < len(tuning) {
			open = tuning[i]
		}

		// only visible when the open string itself is lit
		indicator := Shape{Kind: Circle, ID: fmt.Sprintf("openstring%d", i),
			X: 11, Y: y - r + 8, R: r, Stroke: cfg.Palette.String, Fill: "none"}
		if hl.IsActive(open) {
			indicator.Opacity = 1
		}
		s.Shapes = append(s.Shapes, indicator)

		s.add(Shape{Kind: Text, X: 2, Y: y, FontSize: 15, Text: open.Name(sp), Fill: cfg.Palette.String})
		s.add(Shape{Kind: Line, X: f.xmin, X2: f.xmax + 10, Y: y, Y2: y,
			Stroke: cfg.Palette.String, StrokeWidth: cfg.Geometry.StringWidth})
	}
}

func (s *Scene) drawMarkers(f frame, frets, numStrings int, markers []config.Marker, cfg config.Fretboard) {
	for _, m := range markers {
		if m.Fret >= frets || m.Row >= numStrings-1 {
			continue
		}
		s.add(Shape{
			Kind:   Circle,
			X:      f.xmin + (float64(m.Fret)+0.5)*f.xdel,
			Y:      f.ymin + (float64(m.Row)+0.5)*f.ydel,
			R:      cfg.Geometry.DotRadius,
			Fill:   cfg.Palette.Dots,
			Stroke: cfg.Palette.DotsOutline,
		})
	}
}

func (s *Scene) drawNotes(f frame, b board.Board, hl *highlight.State, cfg config.Fretboard) {
	sp := cfg.SpellingMode()
	selected, hasSelection := hl.Selected()
	for i, row := range b {
		y := f.ymin + float64(i)*f.ydel
		for j := 1; j < len(row); j++ {
			x := f.xmin + (float64(j)-0.5)*f.xdel
			p := row[j]
			name := p.Name(sp)
			color, active := hl.ColorFor(p)
			if !active {
				color = hl.DefaultColor()
			}
			isSelected := hasSelection && p == selected
			if isSelected {
				color = hl.DefaultColor()
			}

			g := Glyph{
				Position: board.Position{String: i, Fret: j},
				Pitch:    p,
				Name:     name,
				Active:   active,
				Selected: isSelected,
				Color:    color,
				Circle: Shape{Kind: Circle, X: x, Y: y, R: cfg.Geometry.NoteRadius,
					Stroke: cfg.Palette.NotesOutline, Fill: color, Opacity: 1},
				Label: Shape{Kind: Text, X: x, Y: y + 3, Anchor: "middle",
					Fill: cfg.Palette.NotesName, Text: name, FontSize: 14, Opacity: 1},
			}
			if active {
				g.Opacity = 1
			} else {
				g.Tooltip = name
			}
			s.Glyphs = append(s.Glyphs, g)
		}
	}
}

// GlyphAt finds the glyph drawn for a board position.
func (s *Scene) GlyphAt(pos board.Position) (Glyph, bool) {
	for _, g := range s.Glyphs {
		if g.Position == pos {
			return g, true
		}
	}
	return Glyph{}, false
}

// ShapeByID finds shapes with an id, such as the open-string indicators.
func (s *Scene) ShapeByID(id string) (Shape, bool) {
	for _, sh := range s.Shapes {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shape{}, false
}
