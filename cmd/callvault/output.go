// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/ManuGH/callvault/internal/metadata"
	"github.com/ManuGH/callvault/internal/store"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newTable draws box borders on a terminal and plain ASCII elsewhere.
func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if isTerminal(w) && os.Getenv("NO_COLOR") == "" {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.Style().Options.SeparateHeader = true
	return tw
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use table or json)", format)
}

var recordColumns = []string{
	metadata.FieldStartTime,
	metadata.FieldExtensionNum,
	metadata.FieldObjectID,
	metadata.FieldChannelNum,
	metadata.FieldAniAliDigits,
	metadata.FieldName,
}

func writeRecordsTable(w io.Writer, records []metadata.Record) {
	tw := newTable(w)
	header := table.Row{"#"}
	for _, c := range recordColumns {
		header = append(header, c)
	}
	header = append(header, "other")
	tw.AppendHeader(header)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: len(header), WidthMax: 60},
	})

	for i, rec := range records {
		row := table.Row{i + 1}
		for _, c := range recordColumns {
			row = append(row, rec.String(c))
		}
		row = append(row, otherFields(rec))
		tw.AppendRow(row)
	}
	if len(records) == 0 {
		tw.AppendRow(table.Row{"-", "(no records)"})
	}
	tw.Render()
}

// otherFields lists the keys not shown as columns, sorted.
func otherFields(rec metadata.Record) string {
	shown := make(map[string]struct{}, len(recordColumns))
	for _, c := range recordColumns {
		shown[c] = struct{}{}
	}
	var keys []string
	for k := range rec {
		if _, ok := shown[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func writeRecordingsTable(w io.Writer, recs []store.Recording) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"File", "Opco", "Date Added", "Extension", "Object ID", "Channel", "ANI/ALI", "Name", "Duration"})
	for _, r := range recs {
		tw.AppendRow(table.Row{
			r.FileName,
			r.Opco,
			r.DateAdded.Format("2006-01-02 15:04:05"),
			r.ExtensionNum,
			r.ObjectID,
			r.ChannelNum,
			r.AniAliDigits,
			r.Name,
			r.Duration,
		})
	}
	if len(recs) == 0 {
		tw.AppendRow(table.Row{"(no recordings)"})
	}
	tw.Render()
}
