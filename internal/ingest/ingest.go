// Package ingest turns daily shipment exports into per-day volume totals and
// derives the occupancy series the forecasting engine consumes.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/storage"
	"github.com/soltixdb/depotcast/internal/utils"
)

var (
	ErrEmptyInput    = errors.New("no shipment rows")
	ErrMissingColumn = errors.New("missing required column")
)

// ParseError reports a malformed cell. Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Canonical column names after alias resolution
const (
	ColumnDate      = "date"
	ColumnVolume    = "volume"
	ColumnWarehouse = "warehouse_id"
)

var columnAliases = map[string]string{
	"date":            ColumnDate,
	"day":             ColumnDate,
	"ship_date":       ColumnDate,
	"shipment_date":   ColumnDate,
	"volume":          ColumnVolume,
	"qty":             ColumnVolume,
	"quantity":        ColumnVolume,
	"units":           ColumnVolume,
	"shipment_volume": ColumnVolume,
	"warehouse":       ColumnWarehouse,
	"warehouse_id":    ColumnWarehouse,
}

var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"02.01.2006",
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Options controls how an export is read
type Options struct {
	// Location interprets dates without an offset, UTC when nil
	Location *time.Location
	// WarehouseID keeps only rows of this warehouse when the export carries
	// a warehouse column. Empty keeps every row.
	WarehouseID string
}

// NormalizeColumn folds a header cell to its canonical name: lower case,
// trimmed, spaces and dashes turned into underscores, aliases resolved.
func NormalizeColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if canonical, ok := columnAliases[n]; ok {
		return canonical
	}
	return n
}

// ParseShipments reads a CSV export and sums volumes per calendar day. The
// result is sorted by date, oldest first, with one entry per day.
func ParseShipments(r io.Reader, opts Options) ([]storage.ShipmentDay, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	br := bufio.NewReader(r)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	index := map[string]int{}
	for i, h := range header {
		col := NormalizeColumn(h)
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	for _, required := range []string{ColumnDate, ColumnVolume} {
		if _, ok := index[required]; !ok {
			return nil, &ParseError{Line: 1, Column: required, Err: ErrMissingColumn}
		}
	}
	warehouseIdx, hasWarehouse := index[ColumnWarehouse]

	totals := map[time.Time]float64{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)

		if hasWarehouse && opts.WarehouseID != "" {
			if cell(record, warehouseIdx) != opts.WarehouseID {
				continue
			}
		}

		date, err := parseDate(cell(record, index[ColumnDate]), loc)
		if err != nil {
			return nil, &ParseError{Line: line, Column: ColumnDate, Err: err}
		}
		volume, err := utils.ParseFloat(cell(record, index[ColumnVolume]), reader.Comma)
		if err != nil {
			return nil, &ParseError{Line: line, Column: ColumnVolume, Err: err}
		}
		if volume < 0 {
			return nil, &ParseError{Line: line, Column: ColumnVolume, Err: fmt.Errorf("negative volume %g", volume)}
		}

		totals[date] += volume
	}

	if len(totals) == 0 {
		return nil, ErrEmptyInput
	}

	days := make([]storage.ShipmentDay, 0, len(totals))
	for d, v := range totals {
		days = append(days, storage.ShipmentDay{Date: d, Volume: v})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// OccupancySeries converts daily volumes into occupancy. With a positive
// capacity the value is the percentage of capacity used; otherwise the raw
// volume is the occupancy.
func OccupancySeries(volumes analytics.TimeSeriesData, w *metadata.Warehouse) analytics.TimeSeriesData {
	out := make(analytics.TimeSeriesData, len(volumes))
	for i, p := range volumes {
		v := p.Value
		if w != nil {
			v = w.Occupancy(v)
		}
		out[i] = analytics.TimeSeriesPoint{Time: p.Time, Value: v}
	}
	return out
}

// VolumeSeries adapts parsed shipment days to a time series
func VolumeSeries(days []storage.ShipmentDay) analytics.TimeSeriesData {
	out := make(analytics.TimeSeriesData, len(days))
	for i, d := range days {
		out[i] = analytics.TimeSeriesPoint{Time: d.Date, Value: d.Volume}
	}
	return out
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return analytics.DateOf(t.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cell(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

// sniffDelimiter picks ';' or tab when the header line uses it instead of ','
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	if nl := bytes.IndexByte(peek, '\n'); nl >= 0 {
		peek = peek[:nl]
	}
	best, bestCount := ',', bytes.Count(peek, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(peek, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
