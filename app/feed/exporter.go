package feed

import (
	"bytes"
	"fmt"

	"github.com/tealeg/xlsx/v3"
)

// ExportColumns mirrors the published spreadsheet layout, so an export can be
// pasted back into the source sheet.
var ExportColumns = []string{
	"id", "category", "headline", "hook", "body",
	"deep_dive", "source_url", "image", "theme", "timestamp",
}

type Exporter struct {
	sheetName string
}

func NewExporter(sheetName string) *Exporter {
	return &Exporter{sheetName: sheetName}
}

// Run builds an in-memory XLSX workbook with one row per story.
func (e *Exporter) Run(stories []Story) (*bytes.Buffer, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(e.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, column := range ExportColumns {
		header.AddCell().Value = column
	}

	for _, story := range stories {
		row := sheet.AddRow()
		row.AddCell().SetInt(story.ID)
		row.AddCell().Value = story.Category
		row.AddCell().Value = story.Headline
		row.AddCell().Value = story.Hook
		row.AddCell().Value = story.Body
		row.AddCell().Value = story.DeepDive
		row.AddCell().Value = story.SourceURL
		row.AddCell().Value = story.Image
		row.AddCell().Value = story.Theme
		row.AddCell().SetDateTime(story.Timestamp)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &buf, nil
}
