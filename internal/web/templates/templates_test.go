package templates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func sampleRecords() []core.Record {
	return core.ValidateRecords([]core.Record{
		{ID: "r1", DeviceIdentifier: "UDI-10001", ManufacturerName: "Acme & Sons", ProductName: "Pump", SingleUse: true},
		{ID: "r2", DeviceIdentifier: "UD1", ProductName: "Valve", IsLocked: true},
	})
}

func TestGrid_RegionsShareRows(t *testing.T) {
	out := render(t, Grid(GridParams{Records: sampleRecords()}))

	frozen := out[strings.Index(out, `class="frozen"`):strings.Index(out, `class="scroll"`)]
	scroll := out[strings.Index(out, `class="scroll"`):]

	for _, region := range []string{frozen, scroll} {
		if strings.Count(region, `id="row-r1"`) != 1 || strings.Count(region, `id="row-r2"`) != 1 {
			t.Error("each region should render every row once")
		}
		if strings.Index(region, "row-r1") > strings.Index(region, "row-r2") {
			t.Error("row order differs between regions")
		}
	}
	if !strings.Contains(frozen, "Device Identifier") || strings.Contains(scroll, "Device Identifier") {
		t.Error("identity columns belong to the frozen region only")
	}
	if !strings.Contains(out, "Acme &amp; Sons") {
		t.Error("cell text not escaped")
	}
	if !strings.Contains(out, "Yes") {
		t.Error("boolean cells should render Yes/No")
	}
}

func TestGrid_IssuesAndLocks(t *testing.T) {
	out := render(t, Grid(GridParams{Records: sampleRecords()}))

	if !strings.Contains(out, "has-error") {
		t.Error("invalid cells should be marked")
	}
	if !strings.Contains(out, `class="locked`) {
		t.Error("locked record cells should be marked")
	}
	if !strings.Contains(out, `action="/cell/edit"`) || !strings.Contains(out, `name="column" value="productName"`) {
		t.Error("unlocked editable cells should post to the editor")
	}
	if strings.Contains(out, `name="id" value="r2"`) {
		t.Error("locked record offers editing")
	}
	if strings.Contains(out, `href="/cell/edit`) {
		t.Error("editing must not start from a link")
	}
}

func TestGrid_EditingCell(t *testing.T) {
	cur := core.EditCursor{State: core.EditEditing, RowID: "r1", Column: core.FieldProductName, Pending: `"quoted"`}
	out := render(t, Grid(GridParams{Records: sampleRecords(), Cursor: cur}))

	if !strings.Contains(out, `action="/cell/commit"`) {
		t.Error("editing cell should render the commit form")
	}
	if !strings.Contains(out, `value="&#34;quoted&#34;"`) {
		t.Errorf("pending value not escaped into the input")
	}
}

func TestGrid_ViewOnly(t *testing.T) {
	out := render(t, Grid(GridParams{Records: sampleRecords(), ViewOnly: true}))

	if strings.Contains(out, "<th>Lock</th>") || strings.Contains(out, "/cell/edit") {
		t.Error("view-only grid offers editing")
	}
}

func TestGrid_Empty(t *testing.T) {
	out := render(t, Grid(GridParams{}))
	if !strings.Contains(out, "No records") {
		t.Error("empty grid should show a placeholder")
	}
}

func TestEditorPage(t *testing.T) {
	rs := sampleRecords()
	out := render(t, EditorPage(EditorData{
		Snapshot: core.Snapshot{Records: rs, Total: 2, Summary: core.Summarize(rs)},
		Flash:    "Imported 2 records",
		Error:    &core.UserMessage{Message: "Import blocked", Action: "Fix errors", Code: "VAL001"},
	}))

	for _, want := range []string{"<!DOCTYPE html>", "Imported 2 records", "VAL001", "No uploads yet", "new WebSocket"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !strings.Contains(out, "disabled>Import") {
		t.Error("import should be disabled while records are invalid")
	}
}

func TestHistoryPage(t *testing.T) {
	rs := sampleRecords()
	e := core.UploadHistoryEntry{ID: "h1", FileName: "<script>.csv", Data: rs, RecordCount: 2}
	out := render(t, HistoryPage(e, rs, core.Summarize(rs)))

	if strings.Contains(out, "<script>.csv") {
		t.Error("file name not escaped")
	}
	if strings.Contains(out, "new WebSocket") {
		t.Error("history page should not live-reload")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRender_PropagatesWriteError(t *testing.T) {
	err := ErrorAlert("m", "a", "c").Render(context.Background(), failWriter{})
	if err == nil {
		t.Error("Render() should return the write error")
	}
}
