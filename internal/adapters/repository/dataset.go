// Package repository owns the historical cutoff dataset: loading it from a
// workbook, holding it immutably, and filtering it for the engine.
package repository

import (
	"slices"
	"time"

	"github.com/okian/admitcalc/internal/domain/admission"
	"github.com/okian/admitcalc/internal/domain/model"
)

// AllSectors selects every sector of a group.
const AllSectors = "All"

// Dataset is an immutable snapshot of historical records. It is safe to share
// between goroutines; a reload produces a new Dataset instead of mutating one.
type Dataset struct {
	records  []model.Record
	groups   []string
	sectors  []string
	source   string
	loadedAt time.Time
}

// NewDataset copies records and indexes their groups and sectors.
func NewDataset(records []model.Record, source string, loadedAt time.Time) *Dataset {
	d := &Dataset{
		records:  slices.Clone(records),
		source:   source,
		loadedAt: loadedAt,
	}
	d.groups = distinct(records, func(r model.Record) string { return r.Group })
	d.sectors = distinct(records, func(r model.Record) string { return r.Sector })
	return d
}

func distinct(records []model.Record, key func(model.Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Source returns the path the dataset was read from.
func (d *Dataset) Source() string { return d.source }

// LoadedAt returns when the dataset was read.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Groups returns the sorted distinct groups.
func (d *Dataset) Groups() []string { return slices.Clone(d.groups) }

// Sectors returns the sorted distinct sectors.
func (d *Dataset) Sectors() []string { return slices.Clone(d.sectors) }

// HasGroup reports whether group occurs in the dataset.
func (d *Dataset) HasGroup(group string) bool {
	_, ok := slices.BinarySearch(d.groups, group)
	return ok
}

// HasSector reports whether sector occurs in the dataset or is AllSectors.
func (d *Dataset) HasSector(sector string) bool {
	if sector == AllSectors {
		return true
	}
	_, ok := slices.BinarySearch(d.sectors, sector)
	return ok
}

// Filter returns the engine input for one group and sector, in file order.
// AllSectors matches every sector.
func (d *Dataset) Filter(group, sector string) []admission.HistoricalRecord {
	out := make([]admission.HistoricalRecord, 0)
	for _, r := range d.records {
		if r.Group != group {
			continue
		}
		if sector != AllSectors && r.Sector != sector {
			continue
		}
		out = append(out, admission.HistoricalRecord{Specialty: r.Specialty, PassingScore: r.PassingScore})
	}
	return out
}
