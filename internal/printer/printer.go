// Package printer renders references for the terminal.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/starford/anchor/internal/models"
)

// Printer writes reference listings as a table or as JSON.
type Printer struct {
	Out  io.Writer
	JSON bool
}

// New returns a table printer writing to color.Output.
func New() *Printer {
	return &Printer{Out: color.Output}
}

var statusColors = map[models.Status]color.Attribute{
	models.StatusActive:    color.FgGreen,
	models.StatusPaused:    color.FgYellow,
	models.StatusIdea:      color.FgCyan,
	models.StatusCompleted: color.FgBlue,
	models.StatusArchived:  color.Faint,
}

// References prints refs in the order given.
func (p *Printer) References(refs []models.Reference) error {
	if p.JSON {
		b, err := json.MarshalIndent(models.StorageFile{References: refs}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode references: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(b))
		return err
	}

	if len(refs) == 0 {
		_, err := color.New(color.Faint, color.Italic).Fprintln(p.Out, "no references")
		return err
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint(""), bold.Sprint("NAME"), bold.Sprint("STATUS"), bold.Sprint("TYPE"), bold.Sprint("TAGS"), bold.Sprint("PATH"))

	for _, r := range refs {
		pin := ""
		if r.Pinned {
			pin = "*"
		}
		tbl.AddRow(pin, r.ReferenceName, StatusLabel(r.Status), string(r.Type), strings.Join(r.Tags, ","), r.AbsolutePath)
	}
	_, err := fmt.Fprintln(p.Out, tbl)
	return err
}

// StatusLabel colors a status by its lifecycle stage.
func StatusLabel(s models.Status) string {
	attr, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return color.New(attr).Sprint(string(s))
}
