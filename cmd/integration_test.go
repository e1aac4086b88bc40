package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes the root command with args, resetting sticky pipeline
// flag state that persists across invocations.
func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	flagFields = nil
	flagMaxCombo = 0
	flagNotable = 0
	flagSignificant = -1
	flagWorkers = 0
	anaOutputPath = ""
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("sex,diag,disp\n")
	line := func(sex, diag, disp string, n int) {
		for i := 0; i < n; i++ {
			b.WriteString(sex + "," + diag + "," + disp + "\n")
		}
	}
	line("M", "amp", "fatal", 4)
	line("M", "cut", "ok", 6)
	line("F", "cut", "ok", 5)
	line("F", "amp", "ok", 2)
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_AnalyzeWritesReport(t *testing.T) {
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	defer os.Setenv("HOME", oldHome)
	os.Setenv("HOME", home)

	csvPath := writeSampleCSV(t)
	outPath := filepath.Join(t.TempDir(), "report.md")
	err := runCmd(t, "analyze", csvPath,
		"--fields", "sex,diag,disp",
		"--notable", "1", "--significant", "0",
		"--out", outPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(data)
	for _, want := range []string{"[ASSOCIATION RUN]", "Rows: 17 (counted 17)", "[STRONGEST ASSOCIATIONS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestCLI_CountsRuns(t *testing.T) {
	csvPath := writeSampleCSV(t)
	if err := runCmd(t, "counts", csvPath, "--fields", "sex,diag", "--top", "3"); err != nil {
		t.Fatalf("counts failed: %v", err)
	}
}

func TestCLI_PairsRuns(t *testing.T) {
	csvPath := writeSampleCSV(t)
	err := runCmd(t, "pairs", csvPath, "diag", "disp",
		"--fields", "sex,diag,disp", "--notable", "1", "--significant", "0")
	if err != nil {
		t.Fatalf("pairs failed: %v", err)
	}
}

func TestCLI_NoFieldsConfigured(t *testing.T) {
	csvPath := writeSampleCSV(t)
	if err := runCmd(t, "counts", csvPath); err == nil {
		t.Fatal("expected error when no fields are configured")
	}
}

func TestCLI_MalformedCSVSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("sex,diag\nM,amp\nF\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := runCmd(t, "counts", path, "--fields", "sex,diag"); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}
