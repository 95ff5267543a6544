package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	service "github.com/okian/admitcalc/internal/app"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q: must be table, json or yaml", format)
	}
}

func writeResult(w io.Writer, format string, res service.CalculateResult) error {
	if format != formatTable {
		return writeStructured(w, format, res)
	}

	m := res.Metadata
	_, _ = fmt.Fprintf(w, "Score %v, group %s, sector %s: %d of top %d\n\n",
		m.Score, m.Group, m.Sector, m.TotalSpecialties, m.TopN)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SPECIALTY\tPROBABILITY\tSTATUS\tMEAN\tSTD DEV\tPOINTS")
	for _, e := range res.Results {
		prob := "N/A"
		if e.Probability != nil {
			prob = strconv.FormatFloat(*e.Probability, 'f', 2, 64) + "%"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			e.Specialty, prob, e.Status, fixed(e.Mean), fixed(e.StdDev), e.DataPoints)
	}
	return tw.Flush()
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkFormat(format)
	}
}

func fixed(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
