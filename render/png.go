package render

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontErr  error
	ttf      *truetype.Font

	facesMu sync.Mutex
	faces   = make(map[float64]font.Face)
)

func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		ttf, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}

	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	faces[size] = f
	return f, nil
}

// setColor understands CSS color names and #rrggbb. Unknown names fall back
// to black so a typo in the palette never breaks an export.
func setColor(dc *gg.Context, name string, opacity float64) {
	c, ok := parseColor(name)
	if !ok {
		c = colornames.Black
	}
	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(255*opacity))
}

func parseColor(name string) (color.RGBA, bool) {
	if hex, ok := strings.CutPrefix(name, "#"); ok {
		var r, g, b uint8
		switch len(hex) {
		case 6:
			if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
				return color.RGBA{}, false
			}
		case 3:
			if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
				return color.RGBA{}, false
			}
			r, g, b = r*17, g*17, b*17
		default:
			return color.RGBA{}, false
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, true
	}
	c, ok := colornames.Map[strings.ToLower(name)]
	return c, ok
}

// WritePNG rasterises the scene. Transparent glyphs are skipped since a
// bitmap has no pointer events to keep alive.
func WritePNG(w io.Writer, s *Scene) error {
	dc := gg.NewContext(int(s.Width), int(s.Height))
	dc.SetColor(color.White)
	dc.Clear()

	for _, sh := range s.Shapes {
		if err := drawShape(dc, sh, 1); err != nil {
			return err
		}
	}
	for _, g := range s.Glyphs {
		if g.Opacity == 0 {
			continue
		}
		if err := drawShape(dc, g.Circle, g.Opacity); err != nil {
			return err
		}
		if err := drawShape(dc, g.Label, g.Opacity); err != nil {
			return err
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("could not encode png: %w", err)
	}
	return nil
}

func drawShape(dc *gg.Context, sh Shape, groupOpacity float64) error {
	opacity := sh.Opacity * groupOpacity
	if opacity <= 0 {
		return nil
	}

	switch sh.Kind {
	case Rect:
		dc.DrawRectangle(sh.X, sh.Y, sh.Width, sh.Height)
		fill(dc, sh, opacity)
	case Line:
		dc.SetLineWidth(sh.StrokeWidth)
		setColor(dc, sh.Stroke, opacity)
		dc.DrawLine(sh.X, sh.Y, sh.X2, sh.Y2)
		dc.Stroke()
	case Circle:
		dc.DrawCircle(sh.X, sh.Y, sh.R)
		fill(dc, sh, opacity)
	case Text:
		f, err := face(sh.FontSize)
		if err != nil {
			return err
		}
		dc.SetFontFace(f)
		setColor(dc, sh.Fill, opacity)
		ax := 0.0
		if sh.Anchor == "middle" {
			ax = 0.5
		}
		dc.DrawStringAnchored(sh.Text, sh.X, sh.Y, ax, 0)
	}
	return nil
}

// fill paints the current path with the shape's fill and then its stroke.
func fill(dc *gg.Context, sh Shape, opacity float64) {
	hasFill := sh.Fill != "" && sh.Fill != "none"
	hasStroke := sh.Stroke != "" && sh.Stroke != "none"
	if hasFill {
		setColor(dc, sh.Fill, opacity)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		dc.SetLineWidth(1)
		setColor(dc, sh.Stroke, opacity)
		dc.Stroke()
	}
	if !hasFill && !hasStroke {
		dc.ClearPath()
	}
}
