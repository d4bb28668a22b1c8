package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"playsync/internal/catalog"
	"playsync/internal/reconcile"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderSummary(out io.Writer, s reconcile.Summary) {
	mode := "write"
	if s.DryRun {
		mode = "dry run"
	}
	rows := [][]string{
		{"Scenario", s.Scenario},
		{"Run ID", s.RunID},
		{"Mode", mode},
		{"Examined", strconv.Itoa(s.Examined)},
		{"Matched", strconv.Itoa(s.Matched)},
	}
	for _, name := range s.Strategies() {
		rows = append(rows, []string{"  by " + name, strconv.Itoa(s.ByStrategy[name])})
	}
	rows = append(rows,
		[]string{"Unmatched", strconv.Itoa(s.Unmatched)},
		[]string{"Skipped", strconv.Itoa(s.Skipped)},
	)
	if s.Scenario == reconcile.ScenarioPlaylists {
		rows = append(rows,
			[]string{"Playlists created", strconv.Itoa(s.PlaylistsCreated)},
			[]string{"Playlist items", strconv.Itoa(s.PlaylistItems)},
		)
	} else {
		rows = append(rows, []string{"Updated", strconv.Itoa(s.Updated)})
	}
	if s.Ineffective > 0 {
		rows = append(rows, []string{"Changed underneath", strconv.Itoa(s.Ineffective)})
	}
	rows = append(rows, []string{"Committed", yesNo(s.Committed)})
	if s.Backup != "" {
		rows = append(rows, []string{"Backup", s.Backup})
	}
	fmt.Fprintln(out, renderTable([]string{"Run", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	switch {
	case s.DryRun && s.Count() > 0:
		fmt.Fprintf(out, "Dry run: %d change(s) not written; pass --write-updates to commit\n", s.Count())
	case s.Count() == 0:
		fmt.Fprintln(out, "Nothing to update")
	}
}

func songRows(songs ...catalog.Song) [][]string {
	rows := make([][]string, 0, len(songs))
	for _, song := range songs {
		last := "never"
		if t := song.LastPlayedTime(); !t.IsZero() {
			last = t.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			strconv.FormatInt(song.RowID, 10),
			song.Artist,
			song.Title,
			strconv.FormatInt(song.PlayCount, 10),
			strconv.FormatInt(song.SkipCount, 10),
			last,
			song.URL,
		})
	}
	return rows
}

var songHeaders = []string{"Row", "Artist", "Title", "Plays", "Skips", "Last played", "URL"}

var songAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
