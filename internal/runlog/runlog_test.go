package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	entries := []Entry{
		{RunID: 1, Status: "completed", Iterations: 500, Agents: 2, WallMS: 12.5},
		{RunID: 2, Status: "failed", Iterations: 3, Agents: 2, Error: "zero separation"},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "runs-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files = %v, err = %v, want exactly one", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader failed: %v", err)
	}
	defer dec.Close()

	var got []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].RunID != 1 || got[0].Status != "completed" || got[0].Time == "" {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].Error != "zero separation" {
		t.Errorf("entry 1 = %+v", got[1])
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w := NewWriter(dir, "runs")
	if err := w.Append(map[string]int{"n": 1}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// A new writer within the same hour must extend the same file.
	w = NewWriter(dir, "runs")
	if err := w.Append(map[string]int{"n": 2}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "runs-*.jsonl.zst"))
	if len(matches) != 1 {
		t.Fatalf("log files = %v, want one", matches)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	var lines int
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		lines++
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2 (concatenated zstd frames)", lines)
	}
}
