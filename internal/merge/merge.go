// Package merge folds an incoming tabular file into the master dataset.
//
// The merge is a key-based upsert: incoming rows fully replace master rows
// that share a key value, the output schema is the sorted union of both
// schemas, and columns that an incoming file no longer carries are pruned
// only when every updated row has them null. Untouched rows keep their data,
// so a column still populated on unrelated keys always survives.
package merge

import (
	"sort"

	"csvwatch/internal/tabular"
)

// Plan is the ephemeral result of one merge computation. It is consumed
// immediately by the persistence coordinator and never stored.
type Plan struct {
	// Columns is the final output schema: the sorted union of both inputs
	// minus any pruned columns.
	Columns []string
	// DroppedColumns lists columns pruned by the obsolete-column rule.
	DroppedColumns []string
	// NewKeys holds the distinct key values of the incoming file.
	NewKeys []string
	// ReplacedKeys holds the keys whose master rows were replaced.
	ReplacedKeys []string
	// Rows is the full resulting row set with at most one row per key.
	Rows []tabular.Row
}

// Engine computes merge plans for a fixed key column.
type Engine struct {
	keyColumn  string
	sortOutput bool
}

// New returns an engine merging on keyColumn. When sortOutput is set, result
// rows are stably sorted by key; otherwise concatenation order is kept.
func New(keyColumn string, sortOutput bool) *Engine {
	return &Engine{keyColumn: keyColumn, sortOutput: sortOutput}
}

// Merge computes the new master state from base and incoming. A nil base
// stands for a master file that does not exist yet. Neither input is
// modified; result rows are copies.
func (e *Engine) Merge(base *tabular.File, incoming *tabular.File) *Plan {
	if base == nil {
		base = &tabular.File{Columns: append([]string(nil), incoming.Columns...)}
	}

	newKeys := incoming.KeyValues(e.keyColumn)
	newKeySet := make(map[string]struct{}, len(newKeys))
	for _, k := range newKeys {
		newKeySet[k] = struct{}{}
	}

	allColumns := unionSorted(base.Columns, incoming.Columns)

	// Upsert: drop every base row whose key the incoming file replaces.
	var replaced []string
	merged := make([]tabular.Row, 0, len(base.Rows)+len(incoming.Rows))
	for _, row := range base.Rows {
		if _, hit := newKeySet[row[e.keyColumn]]; hit {
			replaced = append(replaced, row[e.keyColumn])
			continue
		}
		merged = append(merged, row.Clone())
	}
	for _, row := range incoming.Rows {
		merged = append(merged, row.Clone())
	}

	merged = dedupeKeepLast(merged, e.keyColumn)

	if e.sortOutput {
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i][e.keyColumn] < merged[j][e.keyColumn]
		})
	}

	dropped := e.pruneObsolete(base, incoming, allColumns, merged)

	final := make([]string, 0, len(allColumns))
	droppedSet := make(map[string]struct{}, len(dropped))
	for _, col := range dropped {
		droppedSet[col] = struct{}{}
	}
	for _, col := range allColumns {
		if _, gone := droppedSet[col]; !gone {
			final = append(final, col)
		}
	}

	sort.Strings(replaced)
	return &Plan{
		Columns:        final,
		DroppedColumns: dropped,
		NewKeys:        newKeys,
		ReplacedKeys:   replaced,
		Rows:           merged,
	}
}

// pruneObsolete applies the obsolete-column rule: a column in the pre-merge
// base schema but not in the incoming schema (key column excepted) is
// dropped iff no remaining row holds a value for it. After the upsert the
// updated rows are always null for such a column, so the survival of the
// column rests entirely on the untouched rows; one populated cell anywhere
// keeps it.
func (e *Engine) pruneObsolete(base, incoming *tabular.File, allColumns []string, merged []tabular.Row) []string {
	incomingCols := incoming.ColumnSet()
	baseCols := base.ColumnSet()

	var dropped []string
	for _, col := range allColumns {
		if col == e.keyColumn {
			continue
		}
		if _, inBase := baseCols[col]; !inBase {
			continue
		}
		if _, inIncoming := incomingCols[col]; inIncoming {
			continue
		}
		populated := false
		for _, row := range merged {
			if !row.IsNull(col) {
				populated = true
				break
			}
		}
		if !populated {
			dropped = append(dropped, col)
			for _, row := range merged {
				delete(row, col)
			}
		}
	}
	return dropped
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, col := range list {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

// dedupeKeepLast enforces at most one row per key. The persisted master must
// never contain duplicate keys, and within one incoming file the last
// occurrence wins.
func dedupeKeepLast(rows []tabular.Row, keyColumn string) []tabular.Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]tabular.Row, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		key := rows[i][keyColumn]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rows[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
