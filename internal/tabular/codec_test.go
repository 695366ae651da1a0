package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustCodec(t *testing.T, delimiter rune, encoding string) *Codec {
	t.Helper()
	codec, err := NewCodec(delimiter, encoding)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestReadFileParsesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clusters.csv")
	contents := "cluster_name,status,region\nalpha,up,\nbeta,down,us-east\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	codec := mustCodec(t, ',', "utf-8")
	file, err := codec.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if file.Name != "clusters.csv" {
		t.Fatalf("unexpected name %q", file.Name)
	}
	if len(file.Columns) != 3 || file.Columns[0] != "cluster_name" {
		t.Fatalf("unexpected columns %v", file.Columns)
	}
	if len(file.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(file.Rows))
	}
	if !file.Rows[0].IsNull("region") {
		t.Fatal("empty cell should read as null")
	}
	if file.Rows[1]["region"] != "us-east" {
		t.Fatalf("unexpected cell %q", file.Rows[1]["region"])
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	codec := mustCodec(t, ',', "utf-8")
	if _, err := codec.Decode([]byte{0xff, 0xfe, 'a'}); err == nil {
		t.Fatal("expected decode error for invalid utf-8")
	}
}

func TestDecodeLatin1Transcodes(t *testing.T) {
	codec := mustCodec(t, ',', "latin1")
	decoded, err := codec.Decode([]byte{'n', 0xe9})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != "né" {
		t.Fatalf("unexpected transcode result %q", decoded)
	}
}

func TestWriteSerializesMissingCellsAsEmpty(t *testing.T) {
	codec := mustCodec(t, ';', "utf-8")
	file := &File{
		Columns: []string{"id", "a", "b"},
		Rows: []Row{
			{"id": "1", "a": "x"},
			{"id": "2", "a": "y", "b": "z"},
		},
	}

	var buf bytes.Buffer
	if err := codec.Write(&buf, file); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "id;a;b\n1;x;\n2;y;z\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q, want %q", buf.String(), want)
	}
}

func TestWriteReadRoundTripNonUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin.csv")

	codec := mustCodec(t, ',', "latin1")
	file := &File{
		Columns: []string{"cluster_name", "owner"},
		Rows:    []Row{{"cluster_name": "café", "owner": "rené"}},
	}

	var buf bytes.Buffer
	if err := codec.Write(&buf, file); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "café") {
		t.Fatal("expected non-UTF-8 bytes on disk")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := codec.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if loaded.Rows[0]["cluster_name"] != "café" {
		t.Fatalf("round trip lost charset: %q", loaded.Rows[0]["cluster_name"])
	}
}

func TestKeyValuesDeduplicatesInRowOrder(t *testing.T) {
	file := &File{
		Columns: []string{"id"},
		Rows:    []Row{{"id": "b"}, {"id": "a"}, {"id": "b"}},
	}
	got := file.KeyValues("id")
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("unexpected key values %v", got)
	}
}
