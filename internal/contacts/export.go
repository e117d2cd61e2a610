// Package contacts manages captured contacts, their labels and the export
// of form response tables.
package contacts

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brandoo/console/internal/models"
)

// SheetName is the worksheet the export writes to.
const SheetName = "Odpovědi"

const missing = "N/A"

// FileLabel describes a number of attached files in Czech.
func FileLabel(n int) string {
	switch n {
	case 1:
		return "1 Soubor"
	case 2, 3, 4:
		return fmt.Sprintf("%d Soubory", n)
	}
	return fmt.Sprintf("%d Souborů", n)
}

// FormatCell renders one response value for a column of type t.
func FormatCell(t models.PropertyType, v any) string {
	if v == nil {
		return missing
	}
	if s, ok := v.(string); ok && s == "" {
		return missing
	}
	switch t {
	case models.PropertyBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "Ano"
			}
			return "Ne"
		}
	case models.PropertyDateTime:
		if s, ok := v.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts.Format("02. 01. 2006")
			}
		}
	case models.PropertyFile:
		if list, ok := v.([]any); ok {
			return FileLabel(len(list))
		}
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func labelTitles(v any, labels []models.Label) string {
	ids, _ := v.([]any)
	var titles []string
	for _, l := range labels {
		for _, id := range ids {
			if id == l.ID {
				titles = append(titles, l.Title)
			}
		}
	}
	return strings.Join(titles, ", ")
}

// Export writes table as an xlsx workbook to w. Columns follow the header
// positions, followed by the submission time and the label titles.
func Export(w io.Writer, table models.FormTable, labels []models.Label) error {
	header := append([]models.TableHeader(nil), table.Table.Header...)
	sort.SliceStable(header, func(i, j int) bool { return header[i].Position < header[j].Position })

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("contacts: export: %w", err)
	}

	titles := make([]any, 0, len(header)+2)
	for _, h := range header {
		titles = append(titles, h.Label)
	}
	titles = append(titles, "Vytvořeno", "Štítky")
	if err := f.SetSheetRow(SheetName, "A1", &titles); err != nil {
		return fmt.Errorf("contacts: export header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(titles), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, row := range table.Table.Body {
		cells := make([]any, 0, len(titles))
		for _, h := range header {
			cells = append(cells, FormatCell(h.PropertyType, row[h.Key]))
		}
		created := missing
		if s, ok := row["createdAt"].(string); ok && s != "" {
			created = s
		}
		cells = append(cells, created, labelTitles(row["labels"], labels))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("contacts: export: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("contacts: export row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("contacts: export write: %w", err)
	}
	return nil
}
