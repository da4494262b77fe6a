package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mo-amir99/training-portal/internal/content"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStats(w io.Writer, s content.Stats) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"Total days", s.TotalDays},
		{"Unlocked", s.UnlockedDays},
		{"Locked", s.LockedDays},
		{"Recordings", s.RecordingsAvailable},
		{"Last updated", s.LastUpdated.String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	fmt.Fprintln(w, "Training Portal Statistics")
	fmt.Fprintln(w, tw.Render())
}

// renderDays lays out one row per day. decorate swaps the plain status words
// for padlock emoji.
func renderDays(days []content.TrainingDay, recs []content.Recording, decorate bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Day", "Status", "Title", "Recording", "Unlocked By"})

	for _, d := range days {
		recording := "-"
		if rec, ok := content.RecordingForDay(recs, d.DayNumber); ok {
			recording = rec.Title
		}
		unlockedBy := "-"
		if d.UnlockedBy != nil {
			unlockedBy = *d.UnlockedBy
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(d.DayNumber),
			dayStatus(d.IsUnlocked, decorate),
			d.Title,
			recording,
			unlockedBy,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func dayStatus(unlocked, decorate bool) string {
	switch {
	case unlocked && decorate:
		return "🔓 Unlocked"
	case unlocked:
		return "Unlocked"
	case decorate:
		return "🔒 Locked"
	default:
		return "Locked"
	}
}

func shouldDecorate(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
