package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/admitcalc/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// ctxCheckEvery bounds how many rows are parsed between cancellation checks.
const ctxCheckEvery = 1024

// Columns names the header cells the loader looks for.
type Columns struct {
	Specialty        string
	Group            string
	Sector           string
	PassingScore     string
	MinScoreRequired string
}

// DefaultColumns returns the header names used by the published score lists.
func DefaultColumns() Columns {
	return Columns{
		Specialty:        "Specialty",
		Group:            "Extracted Group",
		Sector:           "Sector",
		PassingScore:     "Passing Score",
		MinScoreRequired: "Min Score Required",
	}
}

// LoadReport summarizes what a load kept and skipped.
type LoadReport struct {
	Rows               int
	Kept               int
	SkippedNoSpecialty int
	MissingScores      int
}

type loadConfig struct {
	sheet   string
	columns Columns
}

// LoadOption configures LoadFile.
type LoadOption func(*loadConfig)

// WithSheet reads the named worksheet instead of the first one.
func WithSheet(name string) LoadOption {
	return func(c *loadConfig) {
		if name != "" {
			c.sheet = name
		}
	}
}

// WithColumns overrides header names. Empty fields keep their defaults.
func WithColumns(cols Columns) LoadOption {
	return func(c *loadConfig) {
		if cols.Specialty != "" {
			c.columns.Specialty = cols.Specialty
		}
		if cols.Group != "" {
			c.columns.Group = cols.Group
		}
		if cols.Sector != "" {
			c.columns.Sector = cols.Sector
		}
		if cols.PassingScore != "" {
			c.columns.PassingScore = cols.PassingScore
		}
		if cols.MinScoreRequired != "" {
			c.columns.MinScoreRequired = cols.MinScoreRequired
		}
	}
}

// LoadFile reads a .xlsx or .csv score list into a Dataset. Passing scores
// that are blank or not numeric become NaN; rows without a specialty are skipped.
func LoadFile(ctx context.Context, path string, opts ...LoadOption) (*Dataset, LoadReport, error) {
	if path == "" {
		return nil, LoadReport{}, ErrNoSource
	}
	cfg := loadConfig{columns: DefaultColumns()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, cfg.sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, LoadReport{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, LoadReport{}, err
	}

	records, report, err := parseRows(ctx, rows, cfg.columns)
	if err != nil {
		return nil, report, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return NewDataset(records, path, time.Now()), report, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer func() { _ = fh.Close() }()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columnIndex struct {
	specialty, group, sector, passing, minScore int
}

// parseRows maps the first non-blank row as the header and converts the rest.
func parseRows(ctx context.Context, rows [][]string, cols Columns) ([]model.Record, LoadReport, error) {
	var report LoadReport

	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, report, ErrEmptySheet
	}

	idx, err := mapHeader(rows[headerRow], cols)
	if err != nil {
		return nil, report, err
	}

	records := make([]model.Record, 0, len(rows)-headerRow-1)
	for i, row := range rows[headerRow+1:] {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, fmt.Errorf("load cancelled: %w", err)
			}
		}
		if blankRow(row) {
			continue
		}
		report.Rows++

		rec := model.Record{
			Specialty:        cell(row, idx.specialty),
			Group:            cell(row, idx.group),
			Sector:           cell(row, idx.sector),
			PassingScore:     parseScore(cell(row, idx.passing)),
			MinScoreRequired: parseScore(cell(row, idx.minScore)),
		}
		if rec.Specialty == "" {
			report.SkippedNoSpecialty++
			continue
		}
		if !rec.HasPassingScore() {
			report.MissingScores++
		}
		records = append(records, rec)
	}
	report.Kept = len(records)
	return records, report, nil
}

func mapHeader(header []string, cols Columns) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := positions[normalizeHeader(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		specialty: lookup(cols.Specialty),
		group:     lookup(cols.Group),
		sector:    lookup(cols.Sector),
		passing:   lookup(cols.PassingScore),
		minScore:  lookup(cols.MinScoreRequired),
	}
	required := []struct {
		name string
		at   int
	}{
		{cols.Specialty, idx.specialty},
		{cols.Group, idx.group},
		{cols.Sector, idx.sector},
		{cols.PassingScore, idx.passing},
	}
	for _, r := range required {
		if r.at < 0 {
			return idx, fmt.Errorf("%w: %s", ErrMissingColumn, r.name)
		}
	}
	return idx, nil
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed value at i; short rows and i < 0 yield "".
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseScore coerces a cell to a number, returning NaN when it is not one.
func parseScore(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
