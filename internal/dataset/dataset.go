// Package dataset loads point collections from CSV and JSON files into the
// engines' input shape. Point ids are assigned by row order so results index
// back into the loaded slice directly.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"clusterkit/internal/core"
)

// Dataset is a loaded point collection. Labels holds ground-truth cluster
// labels when the source carries them and is nil otherwise. Features names
// the columns behind each feature index.
type Dataset struct {
	Points   []core.Point
	Labels   []int
	Features []string
}

// Load reads a dataset from path, dispatching on the file extension (.csv or
// .json). labelColumn names the CSV column holding ground-truth labels; an
// empty name or a missing column means no labels.
func Load(path, labelColumn string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f, labelColumn)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("%w: unsupported dataset format %q", core.ErrInvalidInput, filepath.Ext(path))
	}
}

// LoadCSV parses a headered CSV stream. Feature columns are the columns whose
// first data value parses as a number, in header order; other columns are
// ignored. labelColumn, when present, is parsed as integer labels instead.
func LoadCSV(r io.Reader, labelColumn string) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", core.ErrInvalidInput)
	}
	return FromRecords(records[0], records[1:], labelColumn)
}

// FromRecords builds a dataset from a header and data rows, using the first
// data row to decide which columns are numeric features.
func FromRecords(header []string, rows [][]string, labelColumn string) (*Dataset, error) {
	labelIdx := -1
	var featureIdx []int
	var featureNames []string
	for c, name := range header {
		if labelColumn != "" && name == labelColumn {
			labelIdx = c
			continue
		}
		if c < len(rows[0]) {
			if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][c]), 64); err == nil {
				featureIdx = append(featureIdx, c)
				featureNames = append(featureNames, name)
			}
		}
	}
	if len(featureIdx) == 0 {
		return nil, fmt.Errorf("%w: no numeric feature columns found", core.ErrInvalidInput)
	}

	ds := &Dataset{
		Points:   make([]core.Point, len(rows)),
		Features: featureNames,
	}
	if labelIdx >= 0 {
		ds.Labels = make([]int, len(rows))
	}
	for i, row := range rows {
		features := make([]float64, len(featureIdx))
		for fi, c := range featureIdx {
			if c >= len(row) {
				return nil, fmt.Errorf("%w: row %d has %d columns, expected at least %d", core.ErrInvalidInput, i+1, len(row), c+1)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", core.ErrInvalidInput, i+1, header[c], err)
			}
			features[fi] = v
		}
		ds.Points[i] = core.Point{ID: i, Features: features}
		if labelIdx >= 0 {
			l, err := strconv.Atoi(strings.TrimSpace(row[labelIdx]))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d label %q: %v", core.ErrInvalidInput, i+1, row[labelIdx], err)
			}
			ds.Labels[i] = l
		}
	}
	return ds, nil
}

// FromMaps builds a dataset from loosely-typed records. The numeric fields
// of the first record, in sorted name order, become the feature schema; every
// record must then carry all of them.
func FromMaps(records []map[string]any) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", core.ErrInvalidInput)
	}
	var names []string
	for name, v := range records[0] {
		if _, ok := toFloat(v); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no numeric fields found", core.ErrInvalidInput)
	}
	sort.Strings(names)

	ds := &Dataset{
		Points:   make([]core.Point, len(records)),
		Features: names,
	}
	for i, rec := range records {
		features := make([]float64, len(names))
		for fi, name := range names {
			f, ok := toFloat(rec[name])
			if !ok {
				return nil, fmt.Errorf("%w: record %d field %q is missing or not numeric", core.ErrInvalidInput, i, name)
			}
			features[fi] = f
		}
		ds.Points[i] = core.Point{ID: i, Features: features}
	}
	return ds, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

type jsonPoint struct {
	Features []float64 `json:"features"`
	Label    *int      `json:"label"`
}

// LoadJSON parses either a bare array of feature vectors ([[...], ...]) or an
// array of {"features": [...], "label": n} objects. Labels must be present on
// all points or none.
func LoadJSON(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var vectors [][]float64
	if err := json.Unmarshal(raw, &vectors); err == nil {
		ds := &Dataset{Points: make([]core.Point, len(vectors))}
		for i, v := range vectors {
			ds.Points[i] = core.Point{ID: i, Features: v}
		}
		return ds, nil
	}

	var objects []jsonPoint
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	ds := &Dataset{Points: make([]core.Point, len(objects))}
	labelled := 0
	for i, o := range objects {
		ds.Points[i] = core.Point{ID: i, Features: o.Features}
		if o.Label != nil {
			labelled++
		}
	}
	if labelled > 0 {
		if labelled != len(objects) {
			return nil, fmt.Errorf("%w: %d of %d points carry labels", core.ErrInvalidInput, labelled, len(objects))
		}
		ds.Labels = make([]int, len(objects))
		for i, o := range objects {
			ds.Labels[i] = *o.Label
		}
	}
	return ds, nil
}
