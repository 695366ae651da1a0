package tabular

import "slices"

// Row maps column names to cell values. A column that is absent from the map
// and a column holding the empty string both read as null; CSV cannot tell
// the two apart, so neither can the merge.
type Row map[string]string

// IsNull reports whether the row has no value for the column.
func (r Row) IsNull(column string) bool {
	return r[column] == ""
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// File is a named container of rows sharing one ordered column set.
type File struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Empty reports whether the file holds no rows.
func (f *File) Empty() bool {
	return f == nil || len(f.Rows) == 0
}

// HasColumn reports whether the column is part of the file's schema.
func (f *File) HasColumn(name string) bool {
	return f != nil && slices.Contains(f.Columns, name)
}

// ColumnSet returns the schema as a set for membership tests.
func (f *File) ColumnSet() map[string]struct{} {
	if f == nil {
		return nil
	}
	set := make(map[string]struct{}, len(f.Columns))
	for _, col := range f.Columns {
		set[col] = struct{}{}
	}
	return set
}

// KeyValues returns the distinct values of the given column in row order.
func (f *File) KeyValues(column string) []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(f.Rows))
	values := make([]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		v := row[column]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
