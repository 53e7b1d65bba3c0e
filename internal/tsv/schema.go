// Package tsv implements schema inference and import for delimited
// annotation tables.
package tsv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/openbio/annostore/internal/errs"
)

// ColumnType is the inferred type of one column.
//
// The values are ordered from most general to most specific, so widening a
// type toward the most general one required is a minimum over this order.
type ColumnType int

const (
	// ColString holds arbitrary text.
	ColString ColumnType = iota
	// ColFloat holds floating point numbers.
	ColFloat
	// ColInteger holds integers.
	ColInteger
	// ColUnknown has seen only null values.
	ColUnknown
)

var columnTypeNames = map[ColumnType]string{
	ColString:  "string",
	ColFloat:   "float",
	ColInteger: "integer",
	ColUnknown: "unknown",
}

func (t ColumnType) String() string {
	if s, ok := columnTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// MarshalJSON encodes the type by name.
func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the type from its name.
func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for typ, name := range columnTypeNames {
		if name == s {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown column type %q", s)
}

// Extend widens the column type as far as necessary to hold val.
// Null tokens do not widen.
func (t ColumnType) Extend(val string, nullValues []string) ColumnType {
	if slices.Contains(nullValues, val) {
		return t
	}
	var compat ColumnType
	if _, err := strconv.ParseInt(val, 10, 64); err == nil {
		compat = ColInteger
	} else if _, err := strconv.ParseFloat(val, 64); err == nil {
		compat = ColFloat
	} else {
		compat = ColString
	}
	return min(t, compat)
}

// Merge returns the most general of the two types.
func (t ColumnType) Merge(other ColumnType) ColumnType {
	return min(t, other)
}

// ColumnSchema describes one column.
type ColumnSchema struct {
	// Column name from the header row.
	Name string `json:"name"`
	// Inferred column type.
	Type ColumnType `json:"type"`
}

// FileSchema describes a table.
type FileSchema struct {
	// The columns in file order.
	Columns []ColumnSchema `json:"columns"`
}

// Merge checks that other has the same columns in the same order and
// widens each column type as needed.
func (s *FileSchema) Merge(other *FileSchema) (*FileSchema, error) {
	if len(s.Columns) != len(other.Columns) {
		return nil, errs.Ef("tsv.Merge", errs.KindSourceParse,
			"column count mismatch: %d vs %d", len(s.Columns), len(other.Columns))
	}
	columns := make([]ColumnSchema, len(s.Columns))
	for i := range s.Columns {
		if s.Columns[i].Name != other.Columns[i].Name {
			return nil, errs.Ef("tsv.Merge", errs.KindSourceParse,
				"column name mismatch at %d: %q vs %q", i, s.Columns[i].Name, other.Columns[i].Name)
		}
		columns[i] = ColumnSchema{
			Name: s.Columns[i].Name,
			Type: s.Columns[i].Type.Merge(other.Columns[i].Type),
		}
	}
	return &FileSchema{Columns: columns}, nil
}

// InferConfig configures schema inference.
type InferConfig struct {
	// Field delimiter.
	FieldDelimiter string `json:"field_delimiter"`
	// Allow differing column counts between rows.
	Flexible bool `json:"flexible"`
	// Tokens treated as null.
	NullValues []string `json:"null_values"`
	// Header prefix to strip from the first column name (OK if missing).
	HeaderPrefix string `json:"header_prefix"`
	// Maximum number of rows sampled for inference.
	NumRows int `json:"num_rows"`
	// Number of leading rows to skip.
	SkipRows int `json:"skip_rows"`

	// Column name for the chromosome.
	ColChromosome string `json:"col_chromosome"`
	// Column name for the (start) position.
	ColStart string `json:"col_start"`
	// Column name for the reference allele.
	ColReference string `json:"col_reference"`
	// Column name for the alternative allele.
	ColAlternative string `json:"col_alternative"`
}

// DefaultInferConfig returns defaults suitable for VCF-style headers.
func DefaultInferConfig() InferConfig {
	return InferConfig{
		FieldDelimiter: "\t",
		NullValues:     []string{"", ".", "NA"},
		HeaderPrefix:   "#",
		NumRows:        10_000,
		ColChromosome:  "CHROM",
		ColStart:       "POS",
		ColReference:   "REF",
		ColAlternative: "ALT",
	}
}

// defaultColumnType seeds a column type from its name before any data row
// is seen.
func (c *InferConfig) defaultColumnType(name string) ColumnType {
	switch name {
	case c.ColChromosome, c.ColReference, c.ColAlternative:
		return ColString
	case c.ColStart:
		return ColInteger
	}
	return ColUnknown
}

// InferSchema runs the inference over at most NumRows data rows of r.
func InferSchema(r io.Reader, cfg InferConfig) (*FileSchema, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)

	for i := 0; i < cfg.SkipRows; i++ {
		if !scanner.Scan() {
			break
		}
	}

	var columns []ColumnSchema
	seenRows := 0
	for scanner.Scan() && seenRows <= cfg.NumRows {
		record := strings.Split(scanner.Text(), cfg.FieldDelimiter)
		seenRows++

		if columns == nil {
			// First row is the header; strip an optional prefix from the
			// leading column name.
			columns = make([]ColumnSchema, len(record))
			for i, name := range record {
				if i == 0 {
					name = strings.TrimPrefix(name, cfg.HeaderPrefix)
				}
				columns[i] = ColumnSchema{Name: name, Type: cfg.defaultColumnType(name)}
			}
			continue
		}

		if len(record) != len(columns) && !cfg.Flexible {
			return nil, errs.Ef("tsv.InferSchema", errs.KindSourceParse,
				"row %d has %d columns, header has %d", seenRows, len(record), len(columns))
		}
		for i, val := range record {
			if i >= len(columns) {
				break
			}
			columns[i].Type = columns[i].Type.Extend(val, cfg.NullValues)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.WrapKind("tsv.InferSchema", errs.KindIO, err)
	}
	if columns == nil {
		return nil, errs.Ef("tsv.InferSchema", errs.KindSourceParse, "input has no header row")
	}

	// With a header but no data rows, all non-locus columns become strings.
	if seenRows == 1 {
		for i := range columns {
			if columns[i].Type == ColUnknown {
				columns[i].Type = ColString
			}
		}
	}

	return &FileSchema{Columns: columns}, nil
}
