package render

import (
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// InstitutesRenderer renders the institute catalog
type InstitutesRenderer struct {
	out io.Writer
}

// NewInstitutesRenderer creates a new institutes renderer
func NewInstitutesRenderer(out io.Writer) *InstitutesRenderer {
	return &InstitutesRenderer{out: out}
}

// RenderInstitutes renders institutes sorted by abbreviation
func (r *InstitutesRenderer) RenderInstitutes(institutes map[string]string) error {
	if len(institutes) == 0 {
		fmt.Fprintln(r.out, "No institutes found")
		return nil
	}

	abbreviations := lo.Keys(institutes)
	slices.Sort(abbreviations)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"ABBREVIATION", "NAME"})
	for _, abbr := range abbreviations {
		t.AppendRow(table.Row{idStyle.Sprint(abbr), institutes[abbr]})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderFaculties renders the faculties of one institute
func (r *InstitutesRenderer) RenderFaculties(abbreviation string, faculties []string) error {
	if len(faculties) == 0 {
		fmt.Fprintf(r.out, "No faculties found for %s\n", abbreviation)
		return nil
	}

	title := cases.Title(language.English, cases.NoLower)
	headerStyle.Fprintf(r.out, "Faculties of %s:\n", abbreviation)
	for _, f := range faculties {
		fmt.Fprintf(r.out, "  • %s\n", title.String(f))
	}
	return nil
}
