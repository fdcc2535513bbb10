package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": []int{1, 2}}, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":[1,2]}` {
		t.Fatalf("json output: %q", got)
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tbl := Table{
		Header: []string{"ID", "NAME"},
		Rows:   [][]string{{"p1", "Portal v2"}, {"p2", "HRMS"}},
	}
	if err := Write(&buf, tbl, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Portal v2") {
		t.Fatalf("table output missing content:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 3 {
		t.Fatalf("expected 3 lines; got %d:\n%s", lines, out)
	}
}

func TestWriteTableWrongValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, 42, "table", false); err == nil {
		t.Fatalf("expected error for non-table value")
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, 1, "yaml", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
