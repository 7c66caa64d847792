package textenc

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestDetectDelimiter_Semicolon(t *testing.T) {
	path := writeInput(t, "in.csv", "a;b;c;d\ne;f;g;h\ni;j;k;l\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != ";" {
		t.Errorf("Expected ';', got %q", got)
	}
}

func TestDetectDelimiter_PrefersMoreSpecificSplit(t *testing.T) {
	// Both comma and semicolon split uniformly; the semicolon produces
	// more separator occurrences and must win.
	path := writeInput(t, "in.csv", "a;b;c,x\nd;e;f,y\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != ";" {
		t.Errorf("Expected ';', got %q", got)
	}
}

func TestDetectDelimiter_TiePrefersComma(t *testing.T) {
	path := writeInput(t, "in.csv", "a,b;c\nd,e;f\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "," {
		t.Errorf("Expected ',', got %q", got)
	}
}

func TestDetectDelimiter_RaggedCandidateDisqualified(t *testing.T) {
	// Semicolon counts differ between lines; tab is uniform.
	path := writeInput(t, "in.csv", "a;b\tc\nd\te;;f\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "\t" {
		t.Errorf("Expected tab, got %q", got)
	}
}

func TestDetectDelimiter_SingleColumnDefaultsToComma(t *testing.T) {
	path := writeInput(t, "in.csv", "one\ntwo\nthree\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "," {
		t.Errorf("Expected ',', got %q", got)
	}
}

func TestDetectDelimiter_EmptyFileDefaultsToComma(t *testing.T) {
	path := writeInput(t, "in.csv", "")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "," {
		t.Errorf("Expected ',', got %q", got)
	}
}

func TestDetectDelimiter_SkipsBlankLines(t *testing.T) {
	path := writeInput(t, "in.csv", "a;b\n\n\nc;d\n")
	got, err := DetectDelimiter(path, "utf-8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != ";" {
		t.Errorf("Expected ';', got %q", got)
	}
}

func TestDetectFormat_UTF16Semicolon(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	raw, err := enc.Bytes([]byte("Vardas;Pavardė;Numeris\nŽydrūnas;Šarkus;AB1\n"))
	if err != nil {
		t.Fatalf("Encode sample: %v", err)
	}
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	format, err := DetectFormat(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if format.Encoding != "utf-16le" {
		t.Errorf("Expected utf-16le, got %s", format.Encoding)
	}
	if format.Delimiter != ";" {
		t.Errorf("Expected ';', got %q", format.Delimiter)
	}
}

func TestDetectFormat_MissingFile(t *testing.T) {
	if _, err := DetectFormat(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Expected error for missing file")
	}
}
