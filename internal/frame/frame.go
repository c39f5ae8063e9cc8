// Package frame holds an in-memory, column-oriented table with nullable
// cells. Column sets are discovered on read; nothing about the schema is fixed.
// Loading, type detection and row filtering go through gota.
package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// nanToken is the cell value gota reads as missing.
const nanToken = "NaN"

// Kind is the inferred storage kind of a column.
type Kind int

const (
	// Categorical columns keep their raw string values.
	Categorical Kind = iota
	// Numeric columns parsed cleanly for every non-null cell.
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is a single named column. Valid[i] is false when row i is null.
// Num is populated for numeric columns, Str for categorical ones.
type Column struct {
	Name  string
	Kind  Kind
	Num   []float64
	Str   []string
	Valid []bool
}

// Len returns the number of rows held by the column.
func (c *Column) Len() int { return len(c.Valid) }

// NullCount returns how many cells are null.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// String renders row i the way it would be written back to CSV.
func (c *Column) String(i int) string {
	if !c.Valid[i] {
		return ""
	}
	if c.Kind == Numeric {
		return FormatNumber(c.Num[i])
	}
	return c.Str[i]
}

// Float returns row i as a number. For categorical columns the raw string is
// parsed; ok is false for nulls and unparsable values.
func (c *Column) Float(i int) (float64, bool) {
	if !c.Valid[i] {
		return 0, false
	}
	if c.Kind == Numeric {
		return c.Num[i], true
	}
	return ParseNumber(c.Str[i])
}

// Series copies the column into a gota series. Nulls become NaN.
func (c *Column) Series() series.Series {
	if c.Kind == Numeric {
		vals := make([]float64, c.Len())
		for i, ok := range c.Valid {
			if ok {
				vals[i] = c.Num[i]
			} else {
				vals[i] = math.NaN()
			}
		}
		return series.New(vals, series.Float, c.Name)
	}
	vals := make([]string, c.Len())
	for i, ok := range c.Valid {
		if ok {
			vals[i] = c.Str[i]
		} else {
			vals[i] = nanToken
		}
	}
	return series.New(vals, series.String, c.Name)
}

// Mean averages the non-null cells of a numeric column. ok is false for
// categorical columns and for columns with no values.
func (c *Column) Mean() (float64, bool) {
	if c.Kind != Numeric || c.NullCount() == c.Len() {
		return 0, false
	}
	return c.Series().Subset(c.Valid).Mean(), true
}

// load replaces the column's cells with those of s, keeping its kind.
func (c *Column) load(s series.Series) {
	c.Valid = make([]bool, s.Len())
	if c.Kind == Numeric {
		c.Num = s.Float()
		for i, v := range c.Num {
			if math.IsNaN(v) {
				c.Num[i] = 0
			} else {
				c.Valid[i] = true
			}
		}
		return
	}
	c.Str = s.Records()
	for i := range c.Str {
		if s.Elem(i).IsNA() {
			c.Str[i] = ""
		} else {
			c.Valid[i] = true
		}
	}
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Valid: append([]bool(nil), c.Valid...)}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// Frame is an ordered set of equally sized columns.
type Frame struct {
	Name    string
	Columns []*Column
	rows    int
}

// New builds a frame from a header and string records. Short records are
// padded with nulls; extra cells are dropped. Column kinds come from gota's
// type detection: integer and float columns are numeric, everything else
// (including boolean and all-null columns) is categorical. Duplicate or empty
// header names are renamed the way gota renames them.
func New(name string, header []string, records [][]string) *Frame {
	f := &Frame{Name: name, rows: len(records)}
	raw := make([][]string, len(header))
	for j := range header {
		raw[j] = make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[j][i] = strings.TrimSpace(rec[j])
			}
		}
	}
	if len(header) == 0 {
		return f
	}
	if len(records) == 0 {
		for j, h := range header {
			f.Columns = append(f.Columns, categorical(h, raw[j]))
		}
		return f
	}

	table := make([][]string, 0, len(records)+1)
	table = append(table, header)
	for i := range records {
		row := make([]string, len(header))
		for j := range header {
			if v := raw[j][i]; !IsNull(v) {
				row[j] = v
			} else {
				row[j] = nanToken
			}
		}
		table = append(table, row)
	}
	df := dataframe.LoadRecords(table,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{nanToken}),
	)
	if df.Err != nil {
		for j, h := range header {
			f.Columns = append(f.Columns, categorical(h, raw[j]))
		}
		return f
	}
	for j, colName := range df.Names() {
		s := df.Col(colName)
		if isNumeric(s) {
			col := &Column{Name: colName, Kind: Numeric}
			col.load(s)
			f.Columns = append(f.Columns, col)
			continue
		}
		f.Columns = append(f.Columns, categorical(colName, raw[j]))
	}
	return f
}

// isNumeric reports whether gota typed s as a number column with finite values.
func isNumeric(s series.Series) bool {
	if t := s.Type(); t != series.Int && t != series.Float {
		return false
	}
	for _, v := range s.Float() {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// categorical keeps the raw cell strings so boolean-looking and mixed columns
// survive untouched.
func categorical(name string, raw []string) *Column {
	col := &Column{Name: name, Kind: Categorical, Str: make([]string, len(raw)), Valid: make([]bool, len(raw))}
	for i, v := range raw {
		if IsNull(v) {
			continue
		}
		col.Str[i], col.Valid[i] = v, true
	}
	return col
}

// Len returns the row count.
func (f *Frame) Len() int { return f.rows }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by exact name.
func (f *Frame) Column(name string) (*Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Has reports whether a column with the given name exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// NullCount counts null cells across the whole frame.
func (f *Frame) NullCount() int {
	n := 0
	for _, c := range f.Columns {
		n += c.NullCount()
	}
	return n
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Name: f.Name, rows: f.rows, Columns: make([]*Column, len(f.Columns))}
	for i, c := range f.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// Filter keeps the rows where keep[i] is true, preserving order.
func (f *Frame) Filter(keep []bool) error {
	if len(keep) != f.rows {
		return fmt.Errorf("filter mask has %d entries, frame has %d rows", len(keep), f.rows)
	}
	subsets := make([]series.Series, len(f.Columns))
	for j, c := range f.Columns {
		s := c.Series().Subset(keep)
		if s.Err != nil {
			return fmt.Errorf("filter column %q: %w", c.Name, s.Err)
		}
		subsets[j] = s
	}
	for j, c := range f.Columns {
		c.load(subsets[j])
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	f.rows = n
	return nil
}

// AddNumeric appends a fully populated numeric column.
func (f *Frame) AddNumeric(name string, vals []float64) error {
	if len(vals) != f.rows {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(vals), f.rows)
	}
	valid := make([]bool, len(vals))
	for i := range valid {
		valid[i] = true
	}
	f.Columns = append(f.Columns, &Column{Name: name, Kind: Numeric, Num: append([]float64(nil), vals...), Valid: valid})
	return nil
}

// AddString appends a fully populated categorical column.
func (f *Frame) AddString(name string, vals []string) error {
	if len(vals) != f.rows {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(vals), f.rows)
	}
	valid := make([]bool, len(vals))
	for i := range valid {
		valid[i] = true
	}
	f.Columns = append(f.Columns, &Column{Name: name, Kind: Categorical, Str: append([]string(nil), vals...), Valid: valid})
	return nil
}

// Records renders the frame as a header plus string rows.
func (f *Frame) Records() ([]string, [][]string) {
	rows := make([][]string, f.rows)
	for i := range rows {
		row := make([]string, len(f.Columns))
		for j, c := range f.Columns {
			row[j] = c.String(i)
		}
		rows[i] = row
	}
	return f.Names(), rows
}

// FormatNumber writes the shortest representation that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
