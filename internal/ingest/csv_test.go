package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/statweave/assoctab-cli/internal/histogram"
	"github.com/statweave/assoctab-cli/internal/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestOpenAndBuild(t *testing.T) {
	path := writeFile(t, "sample.csv",
		"sex,day,diag,disp\n"+
			"M,Tue,amp,fatal\n"+
			"M,Tue,amp,ok\n"+
			"F,Tue,amp,ok\n")
	src, err := ingest.Open(path, ingest.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	if got := src.Header(); len(got) != 4 || got[0] != "sex" {
		t.Fatalf("header = %v", got)
	}
	table, err := histogram.Build(src, []string{"diag", "disp"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if table.Total() != 3 {
		t.Fatalf("total = %d, want 3", table.Total())
	}
	if src.Rows() != 3 {
		t.Fatalf("rows read = %d, want 3", src.Rows())
	}
	n, err := table.Get(histogram.FieldValue{Field: "diag", Value: "amp"}, histogram.FieldValue{Field: "disp", Value: "ok"})
	if err != nil || n != 2 {
		t.Fatalf("amp×ok = %d, %v", n, err)
	}
}

func TestMissingMarkersExcludeRows(t *testing.T) {
	path := writeFile(t, "sample.csv",
		"sex,diag\n"+
			"M,amp\n"+
			"NA,cut\n"+
			"F, cut \n"+ // leading/trailing space trimmed
			",amp\n")
	src, err := ingest.Open(path, ingest.Options{Missing: []string{"NA"}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	table, err := histogram.Build(src, []string{"sex", "diag"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if table.Total() != 2 {
		t.Fatalf("total = %d, want 2 (NA and empty rows excluded)", table.Total())
	}
	f, _ := table.Field("diag")
	if _, ok := f.Code("cut"); !ok {
		t.Fatal("trimmed value 'cut' not coded")
	}
}

func TestShortRecordIsSchemaMismatch(t *testing.T) {
	path := writeFile(t, "sample.csv",
		"sex,diag\n"+
			"M,amp\n"+
			"F\n")
	src, err := ingest.Open(path, ingest.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	_, err = histogram.Build(src, []string{"sex", "diag"})
	var malformed *histogram.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedRowError", err)
	}
}

func TestUnknownColumnIsSchemaMismatch(t *testing.T) {
	path := writeFile(t, "sample.csv", "sex,diag\nM,amp\n")
	src, err := ingest.Open(path, ingest.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	_, err = histogram.Build(src, []string{"sex", "disposition"})
	var malformed *histogram.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedRowError", err)
	}
}

func TestTSVSniffing(t *testing.T) {
	path := writeFile(t, "sample.tsv", "sex\tdiag\nM\tamp\n")
	src, err := ingest.Open(path, ingest.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	table, err := histogram.Build(src, []string{"sex", "diag"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if table.Total() != 1 {
		t.Fatalf("total = %d, want 1", table.Total())
	}
}
