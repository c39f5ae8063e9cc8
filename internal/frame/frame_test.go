package frame

import (
	"testing"
)

func TestNewInfersKinds(t *testing.T) {
	header := []string{"state", "district", "age_5_17", "empty", "mixed"}
	records := [][]string{
		{"Maharashtra", "Pune", "10", "", "1"},
		{"Maharashtra", "", "2.5", "NA", "x"},
		{"Goa", "Panaji"},
	}
	f := New("t.csv", header, records)
	if f.Len() != 3 {
		t.Fatalf("rows = %d, want 3", f.Len())
	}
	kinds := map[string]Kind{"state": Categorical, "district": Categorical, "age_5_17": Numeric, "empty": Categorical, "mixed": Categorical}
	for name, want := range kinds {
		c, ok := f.Column(name)
		if !ok {
			t.Fatalf("missing column %s", name)
		}
		if c.Kind != want {
			t.Fatalf("%s kind = %v, want %v", name, c.Kind, want)
		}
	}
	if got := f.NullCount(); got != 6 {
		t.Fatalf("nulls = %d, want 6", got)
	}
	c, _ := f.Column("age_5_17")
	if v, ok := c.Float(1); !ok || v != 2.5 {
		t.Fatalf("age_5_17[1] = %v,%v", v, ok)
	}
	if _, ok := c.Float(2); ok {
		t.Fatalf("padded cell should be null")
	}
}

func TestFilterAndRecords(t *testing.T) {
	f := New("t.csv", []string{"d", "n"}, [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}})
	if err := f.Filter([]bool{true, false, true}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if err := f.AddNumeric("q", []float64{100, 50}); err != nil {
		t.Fatalf("add: %v", err)
	}
	header, rows := f.Records()
	if len(header) != 3 || header[2] != "q" {
		t.Fatalf("header = %v", header)
	}
	if rows[1][0] != "c" || rows[1][1] != "3" || rows[1][2] != "50" {
		t.Fatalf("rows = %v", rows)
	}
	if err := f.Filter([]bool{true}); err == nil {
		t.Fatalf("expected mask length error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := New("t.csv", []string{"d"}, [][]string{{"a"}})
	g := f.Clone()
	g.Columns[0].Str[0] = "z"
	if f.Columns[0].Str[0] != "a" {
		t.Fatalf("clone shares storage")
	}
}

func TestNewKeepsBooleanAndInfiniteColumnsAsText(t *testing.T) {
	f := New("t.csv", []string{"flag", "ratio", "n"}, [][]string{
		{"true", "1.5", "3"},
		{"false", "inf", "4"},
		{"1", "2", ""},
	})
	for name, want := range map[string]Kind{"flag": Categorical, "ratio": Categorical, "n": Numeric} {
		c, _ := f.Column(name)
		if c.Kind != want {
			t.Fatalf("%s kind = %v, want %v", name, c.Kind, want)
		}
	}
	flag, _ := f.Column("flag")
	if flag.Str[2] != "1" {
		t.Fatalf("flag[2] = %q, want raw text", flag.Str[2])
	}
}

func TestColumnMeanSkipsNulls(t *testing.T) {
	f := New("t.csv", []string{"n", "s"}, [][]string{{"10", "a"}, {"", "b"}, {"30", ""}})
	n, _ := f.Column("n")
	if m, ok := n.Mean(); !ok || m != 20 {
		t.Fatalf("mean = %v,%v want 20,true", m, ok)
	}
	s, _ := f.Column("s")
	if _, ok := s.Mean(); ok {
		t.Fatalf("categorical columns have no mean")
	}
	empty := New("t.csv", []string{"n"}, [][]string{{""}, {"NA"}})
	c, _ := empty.Column("n")
	if _, ok := c.Mean(); ok {
		t.Fatalf("all-null column has no mean")
	}
}

func TestFilterKeepsNulls(t *testing.T) {
	f := New("t.csv", []string{"n", "s"}, [][]string{{"1", "a"}, {"", ""}, {"3", "c"}})
	if err := f.Filter([]bool{false, true, true}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	n, _ := f.Column("n")
	s, _ := f.Column("s")
	if n.Valid[0] || s.Valid[0] || !n.Valid[1] || n.Num[1] != 3 || s.Str[1] != "c" {
		t.Fatalf("after filter n=%v/%v s=%v/%v", n.Num, n.Valid, s.Str, s.Valid)
	}
	if f.NullCount() != 2 {
		t.Fatalf("nulls = %d, want 2", f.NullCount())
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in string
		ok bool
		v  float64
	}{
		{"12", true, 12},
		{" 1e3 ", true, 1000},
		{"1,000", false, 0},
		{"NaN", false, 0},
		{"abc", false, 0},
	}
	for _, tc := range cases {
		v, ok := ParseNumber(tc.in)
		if ok != tc.ok || v != tc.v {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", tc.in, v, ok, tc.v, tc.ok)
		}
	}
}
