package merge_test

import (
	"reflect"
	"testing"

	"csvwatch/internal/merge"
	"csvwatch/internal/tabular"
)

func row(pairs ...string) tabular.Row {
	r := make(tabular.Row, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			r[pairs[i]] = pairs[i+1]
		}
	}
	return r
}

func keysOf(rows []tabular.Row, key string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[key])
	}
	return out
}

func TestMergeReplacesRowAndAddsColumn(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"cluster_name", "status"},
		Rows: []tabular.Row{
			row("cluster_name", "A", "status", "up"),
			row("cluster_name", "B", "status", "down"),
		},
	}
	incoming := &tabular.File{
		Columns: []string{"cluster_name", "status", "region"},
		Rows:    []tabular.Row{row("cluster_name", "B", "status", "up", "region", "us-east")},
	}

	plan := merge.New("cluster_name", false).Merge(base, incoming)

	wantColumns := []string{"cluster_name", "region", "status"}
	if !reflect.DeepEqual(plan.Columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", plan.Columns, wantColumns)
	}
	if len(plan.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(plan.Rows))
	}

	var a, b tabular.Row
	for _, r := range plan.Rows {
		switch r["cluster_name"] {
		case "A":
			a = r
		case "B":
			b = r
		}
	}
	if a["status"] != "up" || !a.IsNull("region") {
		t.Fatalf("row A changed unexpectedly: %v", a)
	}
	if b["status"] != "up" || b["region"] != "us-east" {
		t.Fatalf("row B not replaced: %v", b)
	}
	if !reflect.DeepEqual(plan.ReplacedKeys, []string{"B"}) {
		t.Fatalf("replaced keys = %v", plan.ReplacedKeys)
	}
	if len(plan.DroppedColumns) != 0 {
		t.Fatalf("unexpected drops %v", plan.DroppedColumns)
	}
}

func TestMergeDropsFullyObsoleteColumn(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id", "a", "b"},
		Rows:    []tabular.Row{row("id", "1", "a", "x", "b", "y")},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "a"},
		Rows:    []tabular.Row{row("id", "1", "a", "x2")},
	}

	plan := merge.New("id", false).Merge(base, incoming)

	if !reflect.DeepEqual(plan.Columns, []string{"a", "id"}) {
		t.Fatalf("columns = %v, want [a id]", plan.Columns)
	}
	if !reflect.DeepEqual(plan.DroppedColumns, []string{"b"}) {
		t.Fatalf("dropped = %v, want [b]", plan.DroppedColumns)
	}
	if len(plan.Rows) != 1 || plan.Rows[0]["a"] != "x2" {
		t.Fatalf("unexpected rows %v", plan.Rows)
	}
}

func TestMergeKeepsColumnPopulatedOnUntouchedRows(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id", "a", "b"},
		Rows: []tabular.Row{
			row("id", "1", "a", "x", "b", "y"),
			row("id", "2", "a", "w", "b", "z"),
		},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "a"},
		Rows:    []tabular.Row{row("id", "1", "a", "x2")},
	}

	plan := merge.New("id", false).Merge(base, incoming)

	if len(plan.DroppedColumns) != 0 {
		t.Fatalf("column populated on untouched row must survive, dropped %v", plan.DroppedColumns)
	}
	if !reflect.DeepEqual(plan.Columns, []string{"a", "b", "id"}) {
		t.Fatalf("columns = %v", plan.Columns)
	}
	for _, r := range plan.Rows {
		if r["id"] == "2" && r["b"] != "z" {
			t.Fatalf("untouched row lost data: %v", r)
		}
	}
}

func TestMergeNewColumnAlwaysSurvives(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id"},
		Rows:    []tabular.Row{row("id", "1")},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "fresh"},
		Rows:    []tabular.Row{row("id", "2", "fresh", "")},
	}

	plan := merge.New("id", false).Merge(base, incoming)
	if !reflect.DeepEqual(plan.Columns, []string{"fresh", "id"}) {
		t.Fatalf("newly introduced column must survive even when null: %v", plan.Columns)
	}
}

func TestMergeDuplicateKeysWithinIncomingKeepsLast(t *testing.T) {
	incoming := &tabular.File{
		Columns: []string{"id", "v"},
		Rows: []tabular.Row{
			row("id", "1", "v", "first"),
			row("id", "2", "v", "other"),
			row("id", "1", "v", "last"),
		},
	}

	plan := merge.New("id", false).Merge(nil, incoming)

	if len(plan.Rows) != 2 {
		t.Fatalf("expected dedup to 2 rows, got %v", plan.Rows)
	}
	seen := map[string]string{}
	for _, r := range plan.Rows {
		seen[r["id"]] = r["v"]
	}
	if seen["1"] != "last" {
		t.Fatalf("expected last occurrence to win, got %q", seen["1"])
	}
}

func TestMergeKeyUniquenessAcrossBaseAndIncoming(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id", "v"},
		Rows:    []tabular.Row{row("id", "1", "v", "old"), row("id", "2", "v", "keep")},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "v"},
		Rows:    []tabular.Row{row("id", "1", "v", "new")},
	}

	plan := merge.New("id", false).Merge(base, incoming)

	counts := map[string]int{}
	for _, r := range plan.Rows {
		counts[r["id"]]++
	}
	for key, n := range counts {
		if n != 1 {
			t.Fatalf("key %q appears %d times", key, n)
		}
	}
}

func TestMergeSortOutput(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id"},
		Rows:    []tabular.Row{row("id", "c"), row("id", "a")},
	}
	incoming := &tabular.File{
		Columns: []string{"id"},
		Rows:    []tabular.Row{row("id", "b")},
	}

	plan := merge.New("id", true).Merge(base, incoming)
	if got := keysOf(plan.Rows, "id"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected sorted keys, got %v", got)
	}
}

func TestMergeUnsortedKeepsConcatenationOrder(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id"},
		Rows:    []tabular.Row{row("id", "c"), row("id", "a")},
	}
	incoming := &tabular.File{
		Columns: []string{"id"},
		Rows:    []tabular.Row{row("id", "b")},
	}

	plan := merge.New("id", false).Merge(base, incoming)
	if got := keysOf(plan.Rows, "id"); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("expected concatenation order, got %v", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"id", "a", "b"},
		Rows: []tabular.Row{
			row("id", "1", "a", "x", "b", "y"),
			row("id", "2", "a", "w", "b", "z"),
		},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "a"},
		Rows:    []tabular.Row{row("id", "1", "a", "x2")},
	}

	engine := merge.New("id", true)
	first := engine.Merge(base, incoming)

	again := engine.Merge(&tabular.File{Columns: first.Columns, Rows: first.Rows}, incoming)

	if !reflect.DeepEqual(first.Columns, again.Columns) {
		t.Fatalf("columns drifted: %v vs %v", first.Columns, again.Columns)
	}
	if !reflect.DeepEqual(first.Rows, again.Rows) {
		t.Fatalf("rows drifted: %v vs %v", first.Rows, again.Rows)
	}
}

func TestMergeNilBase(t *testing.T) {
	incoming := &tabular.File{
		Columns: []string{"id", "v"},
		Rows:    []tabular.Row{row("id", "1", "v", "x")},
	}
	plan := merge.New("id", false).Merge(nil, incoming)
	if len(plan.Rows) != 1 || len(plan.ReplacedKeys) != 0 {
		t.Fatalf("unexpected plan for nil base: %+v", plan)
	}
	if !reflect.DeepEqual(plan.Columns, []string{"id", "v"}) {
		t.Fatalf("columns = %v", plan.Columns)
	}
}

func TestMergeSchemaIsSortedUnion(t *testing.T) {
	base := &tabular.File{
		Columns: []string{"zeta", "id"},
		Rows:    []tabular.Row{row("id", "1", "zeta", "v")},
	}
	incoming := &tabular.File{
		Columns: []string{"id", "alpha", "zeta"},
		Rows:    []tabular.Row{row("id", "2", "alpha", "a", "zeta", "w")},
	}

	plan := merge.New("id", false).Merge(base, incoming)
	if !reflect.DeepEqual(plan.Columns, []string{"alpha", "id", "zeta"}) {
		t.Fatalf("columns = %v", plan.Columns)
	}
}
