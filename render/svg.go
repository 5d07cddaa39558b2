package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"

	"github.com/Masterminds/sprig"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("base").Funcs(sprig.FuncMap()).Funcs(template.FuncMap{
		"num": formatNum,
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

// formatNum keeps coordinates short: 2 decimals, no trailing zeros.
func formatNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

type TuningOption struct {
	Name  string
	Notes []string
}

// Page is everything the HTML page shows around the diagram.
type Page struct {
	Title         string
	Scene         *Scene
	ScaleNames    []string
	ChordNames    []string
	Tunings       []TuningOption
	CurrentTuning string
	Frets         int
	MaxFrets      int
	Presets       []string
	Selected      string
	Identified    string
}

func WriteSVG(w io.Writer, s *Scene) error {
	if err := templates.ExecuteTemplate(w, "board", s); err != nil {
		return fmt.Errorf("could not render svg: %w", err)
	}
	return nil
}

func WritePage(w io.Writer, p Page) error {
	if err := templates.ExecuteTemplate(w, "page", p); err != nil {
		return fmt.Errorf("could not render page: %w", err)
	}
	return nil
}
