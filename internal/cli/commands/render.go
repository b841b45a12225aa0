package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/paramimport/internal/cli/config"
	"github.com/leapstack-labs/paramimport/internal/paramgen"
	"github.com/leapstack-labs/paramimport/internal/registry"
	"github.com/leapstack-labs/paramimport/pkg/token"
	"gopkg.in/yaml.v3"
)

// packageView is the serialized form of a discovered package.
type packageView struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// loadReport is the outcome of one borrowed definition.
type loadReport struct {
	Source     string                `json:"source" yaml:"source"`
	Found      bool                  `json:"found" yaml:"found"`
	Type       string                `json:"type,omitempty" yaml:"type,omitempty"`
	Target     *paramgen.Target      `json:"target,omitempty" yaml:"target,omitempty"`
	Parameters []*paramgen.Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// commentView is one removed comment and where it was.
type commentView struct {
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Offset int    `json:"offset" yaml:"offset"`
	Text   string `json:"text" yaml:"text"`
}

// render writes v as JSON or YAML, or calls asTable for the table format.
func render(w io.Writer, format string, v any, asTable func() error) error {
	switch format {
	case config.OutputJSON:
		return renderJSON(w, v)
	case config.OutputYAML:
		return renderYAML(w, v)
	default:
		return asTable()
	}
}

func renderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderPackages(w io.Writer, format string, pkgs []*registry.Package) error {
	views := make([]packageView, 0, len(pkgs))
	for _, pkg := range pkgs {
		views = append(views, packageView{
			Name:        pkg.Name,
			Version:     pkg.Version,
			Path:        pkg.Path,
			Description: pkg.Description,
		})
	}

	return render(w, format, views, func() error {
		if len(views) == 0 {
			_, _ = fmt.Fprintln(w, "(0 packages)")
			return nil
		}

		t := newTable(w)
		t.AppendHeader(table.Row{"Name", "Version", "Path"})
		for _, v := range views {
			t.AppendRow(table.Row{v.Name, v.Version, v.Path})
		}
		t.Render()
		return nil
	})
}

func renderReports(w io.Writer, format string, reports []loadReport) error {
	return render(w, format, reports, func() error {
		for i, report := range reports {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			renderReportTable(w, report)
		}
		return nil
	})
}

func renderReportTable(w io.Writer, report loadReport) {
	if !report.Found {
		_, _ = fmt.Fprintf(w, "%s: no parameter definitions found\n", report.Source)
		return
	}

	title := report.Source
	if report.Target != nil {
		title = fmt.Sprintf("%s (%s/%s %s)", report.Source, report.Target.Package, report.Target.Node, report.Target.ClassName)
	}
	if len(report.Parameters) == 0 {
		_, _ = fmt.Fprintf(w, "%s: %s with no parameters\n", title, report.Type)
		return
	}

	// go-pretty wraps titles to the table width, so the heading gets its own line.
	_, _ = fmt.Fprintln(w, title)
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Type", "Default", "Range", "Flags", "Description"})
	for _, p := range report.Parameters {
		name := p.Name
		if p.Group != "" {
			name = p.Group + "/" + p.Name
		}
		t.AppendRow(table.Row{name, p.Type, formatValue(p.Default), formatRange(p), formatFlags(p), p.Description})
	}
	t.Render()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func formatRange(p *paramgen.Parameter) string {
	if len(p.Enum) > 0 {
		return strings.Join(p.Enum, "|")
	}
	if p.Min == nil && p.Max == nil {
		return ""
	}
	return fmt.Sprintf("[%s, %s]", formatValue(p.Min), formatValue(p.Max))
}

func formatFlags(p *paramgen.Parameter) string {
	var flags []string
	if p.Configurable {
		flags = append(flags, "configurable")
	}
	if p.GlobalScope {
		flags = append(flags, "global")
	}
	if p.Constant {
		flags = append(flags, "constant")
	}
	return strings.Join(flags, ",")
}

func renderComments(w io.Writer, format string, comments []token.Token) error {
	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView{
			Line:   c.Start.Line,
			Column: c.Start.Column,
			Offset: c.Start.Offset,
			Text:   c.Text,
		})
	}

	return render(w, format, views, func() error {
		if len(views) == 0 {
			_, _ = fmt.Fprintln(w, "(0 comments)")
			return nil
		}

		t := newTable(w)
		t.AppendHeader(table.Row{"Position", "Comment"})
		for _, v := range views {
			t.AppendRow(table.Row{fmt.Sprintf("%d:%d", v.Line, v.Column), v.Text})
		}
		t.Render()
		return nil
	})
}
