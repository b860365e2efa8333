package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

const (
	sheetName     = "Extractions"
	minColWidth   = 12
	maxColWidth   = 60
	maxCellLength = 32767 // Excel's per-cell character limit
)

// Exporter writes report tables to disk.
type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Export writes records to path as "xlsx" or "csv". Unknown formats fail with
// ErrUnsupportedFormat before anything touches the filesystem. All records
// must carry the same keys; the first record fixes the column order. A missing
// parent directory is created.
func (e *Exporter) Export(records []Record, path, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != constants.FormatXLSX && format != constants.FormatCSV {
		return common.NewAppError(common.CodeUnsupportedFormat,
			fmt.Sprintf("format %q is not one of xlsx, csv", format), common.ErrUnsupportedFormat)
	}

	header, table, err := tabulate(records)
	if err != nil {
		return err
	}
	if err := ensureParent(path); err != nil {
		return err
	}

	start := time.Now()
	switch format {
	case constants.FormatXLSX:
		err = writeXLSX(path, header, table)
	case constants.FormatCSV:
		err = writeCSV(path, header, table)
	}
	if err != nil {
		e.logger.Error("export.write_failed", "format", format, "path", path, "error", err)
		return err
	}

	e.logger.Info("export."+format+".ok",
		"path", path,
		"rows", len(table),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// WriteSummary stores v as indented JSON at path.
func (e *Exporter) WriteSummary(path string, v any) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	e.logger.Info("export.json.ok", "path", path, "bytes", len(b))
	return nil
}

// ReadSummary loads a JSON document written by WriteSummary into v.
func ReadSummary(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return common.NewAppError(common.CodeNotFound, "summary not found", common.ErrNotFound)
		}
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode summary %s: %w", filepath.Base(path), err)
	}
	return nil
}

func tabulate(records []Record) ([]string, [][]string, error) {
	if len(records) == 0 {
		return nil, nil, common.NewAppError(common.CodeEmptyBatch, "nothing to export", common.ErrEmptyBatch)
	}
	header := records[0].Keys()
	table := make([][]string, 0, len(records))
	for i, r := range records {
		if !sameKeys(header, r) {
			return nil, nil, fmt.Errorf("%w: record %d has keys %v, want %v",
				common.ErrHeterogeneousRows, i, r.Keys(), header)
		}
		row := make([]string, len(header))
		for j, k := range header {
			row[j], _ = r.Get(k)
		}
		table = append(table, row)
	}
	return header, table, nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return nil
}

func writeCSV(path string, header []string, table [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	if err := w.WriteAll(table); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeXLSX(path string, header []string, table [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	widths := make([]int, len(header))
	write := func(col, row int, v string) {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheetName, cell, truncate(v, maxCellLength))
		if n := utf8.RuneCountInString(v); n > widths[col] {
			widths[col] = n
		}
	}

	for i, h := range header {
		write(i, 1, h)
	}
	for r, vals := range table {
		for c, v := range vals {
			write(c, r+2, v)
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, float64(clamp(w+2, minColWidth, maxColWidth)))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
