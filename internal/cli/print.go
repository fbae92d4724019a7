package cli

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/reconcile"
	"github.com/aidanlsb/brag/internal/ui"
)

// printResult prints command data for a person at the terminal.
func printResult(command string, data interface{}) {
	switch v := data.(type) {
	case brag.EnsureResult:
		if v.Status == reconcile.StatusCreated {
			fmt.Println(ui.Successf("Created %s", ui.FilePath(v.Path)))
		} else {
			fmt.Printf("%s already exists\n", ui.FilePath(v.Path))
		}
	case brag.Outline:
		fmt.Println(ui.Header(v.Document))
		for _, s := range v.Sections {
			fmt.Println()
			fmt.Print(formatSection(s))
		}
	case brag.Section:
		fmt.Print(formatSection(v.SectionEntries))
	case brag.EntryResult:
		fmt.Println(formatEntryResult(command, v))
	case brag.RepairResult:
		fmt.Print(formatRepair(v.RepairReport))
	case commands.HistoryData:
		fmt.Print(formatHistory(v))
	default:
		fmt.Printf("%v\n", v)
	}
}

// entryIDColumn is the room kept for the bullet marker and a UUID.
const entryIDColumn = 44

func formatSection(s model.SectionEntries) string {
	var sb strings.Builder
	indent := ""
	if s.Nested {
		indent = "  "
	}
	heading := ui.SectionHeading(s.Heading)
	if s.Missing {
		heading += " " + ui.Hint("(heading missing from document)")
	}
	sb.WriteString(indent + heading + "\n")

	if len(s.Entries) == 0 && !s.Missing {
		sb.WriteString(indent + "  " + ui.Hint("no entries") + "\n")
		return sb.String()
	}
	// Long entries are cut on a terminal so ids stay on the same line.
	textWidth := 0
	if width, tty := ui.TermWidth(); tty {
		textWidth = width - len(indent) - entryIDColumn
	}
	list := ui.NewList()
	list.SetIndent(indent + "  ")
	for _, e := range s.Entries {
		list.Add(ui.Truncate(e.Text, textWidth) + "  " + ui.EntryID(e.ID))
	}
	sb.WriteString(list.String())
	if n := s.Unindexed(); n > 0 {
		sb.WriteString(indent + "  " + ui.Hint(ui.Count(n, "entry has", "entries have")+" no id; run 'brag repair'") + "\n")
	}
	return sb.String()
}

func formatEntryResult(command string, r brag.EntryResult) string {
	e := r.Entry
	switch command {
	case "update":
		if r.Adopted {
			return ui.Successf("Updated entry in %s and assigned id %s", e.SectionPath, e.ID)
		}
		return ui.Successf("Updated entry %s in %s", e.ID, e.SectionPath)
	case "delete":
		return ui.Successf("Deleted %q from %s", e.Text, e.SectionPath)
	default:
		return ui.Successf("Added entry %s to %s", e.ID, e.SectionPath)
	}
}

func formatRepair(r reconcile.RepairReport) string {
	var sb strings.Builder
	if len(r.Adopted) == 0 && len(r.Orphans) == 0 {
		return ui.Success("Index matches the document") + "\n"
	}
	if len(r.Adopted) > 0 {
		sb.WriteString(ui.Successf("Assigned ids to %s", ui.Count(len(r.Adopted), "entry", "entries")) + "\n")
		tbl := ui.NewTable(3)
		for _, e := range r.Adopted {
			tbl.AddRow("  "+e.SectionPath, e.Text, ui.EntryID(e.ID))
		}
		sb.WriteString(tbl.String())
	}
	if len(r.Orphans) > 0 {
		verb := "match no entry"
		if r.Pruned {
			verb = "removed"
		}
		sb.WriteString(ui.Warning(fmt.Sprintf("%s %s", ui.Count(len(r.Orphans), "record", "records"), verb)) + "\n")
		tbl := ui.NewTable(3)
		for _, e := range r.Orphans {
			tbl.AddRow("  "+e.SectionPath, e.Text, ui.EntryID(e.ID))
		}
		sb.WriteString(tbl.String())
		if !r.Pruned {
			sb.WriteString(ui.Hint("Run 'brag repair --prune' to remove them") + "\n")
		}
	}
	return sb.String()
}

func formatHistory(h commands.HistoryData) string {
	if len(h.Changes) == 0 {
		return ui.Hint("No recorded changes") + "\n"
	}
	tbl := ui.NewTable(5)
	for _, c := range h.Changes {
		text := c.NewText
		if text == "" {
			text = c.OldText
		}
		if c.OldText != "" && c.NewText != "" {
			text = c.OldText + " → " + c.NewText
		}
		tbl.AddRow(
			ui.Hint(c.Timestamp.Local().Format("2006-01-02 15:04")),
			string(c.Operation),
			c.SectionPath,
			text,
			ui.EntryID(c.EntryID),
		)
	}
	return tbl.String()
}
