package templates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// EditorData is everything the editor page renders.
type EditorData struct {
	Snapshot core.Snapshot
	History  []core.UploadHistoryEntry
	GMDN     []core.GMDNRecord
	Flash    string
	Error    *core.UserMessage
}

// EditorPage renders the main editing session.
func EditorPage(d EditorData) templ.Component {
	return Layout("UDI Editor", true, component(func(ctx context.Context, h *html) {
		snap := d.Snapshot

		if d.Error != nil {
			h.render(ctx, ErrorAlert(d.Error.Message, d.Error.Action, d.Error.Code))
		}
		if d.Flash != "" {
			h.raw(`<p class="flash">`)
			h.text(d.Flash)
			h.raw(`</p>`)
		}

		h.render(ctx, SummaryBar(snap.Summary, len(snap.Records)))
		h.render(ctx, ingestStatus(snap.Ingest))
		h.render(ctx, toolbar(snap))
		if len(snap.ParseErrors) > 0 {
			h.render(ctx, parseErrors(snap.ParseErrors))
		}
		h.render(ctx, filterBar(snap.Filters))
		h.render(ctx, Grid(GridParams{Records: snap.Records, Cursor: snap.Cursor}))
		h.render(ctx, gmdnSheet(d.GMDN))
		h.render(ctx, HistoryList(d.History))
	}))
}

// SummaryBar renders the status counts.
func SummaryBar(s core.Summary, shown int) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="summary">`)
		h.rawf(`<span>%d records</span>`, s.Total)
		if shown != s.Total {
			h.rawf(`<span>%d shown</span>`, shown)
		}
		h.rawf(`<span class="valid">%d valid</span>`, s.Valid)
		h.rawf(`<span class="warning">%d warnings</span>`, s.Warning)
		h.rawf(`<span class="invalid">%d invalid</span>`, s.Invalid)
		if s.Pending > 0 {
			h.rawf(`<span class="pending">%d pending</span>`, s.Pending)
		}
		h.raw(`</div>`)
	})
}

func ingestStatus(st core.IngestStatus) templ.Component {
	return component(func(_ context.Context, h *html) {
		switch st.Phase {
		case core.PhaseProcessing:
			h.raw(`<p class="pending">Processing `)
			h.text(st.SourceName)
			h.raw(`&hellip; <form method="post" action="/ingest/cancel" style="display:inline"><button>Cancel</button></form></p>`)
		case core.PhaseFailed:
			h.raw(`<p class="invalid">Last upload failed: `)
			h.text(st.Error)
			h.raw(`</p>`)
		}
	})
}

func toolbar(snap core.Snapshot) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="controls">`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="file" accept=".csv,.xlsx,.xls" required><button type="submit">Upload</button></form>`)
		h.raw(`<form method="post" action="/demo"><button type="submit">Load demo data</button></form>`)
		h.raw(`<form method="post" action="/validate"><button type="submit">Validate all</button></form>`)
		h.raw(`<form method="post" action="/lock-all"><button type="submit">Lock all</button></form>`)
		h.raw(`<form method="post" action="/unlock-all"><button type="submit">Unlock all</button></form>`)

		h.raw(`<form method="post" action="/import"><button type="submit"`)
		if snap.Summary.Invalid > 0 || snap.Total == 0 {
			h.raw(` disabled`)
		}
		h.raw(`>Import</button></form>`)
		h.raw(`<form method="post" action="/clear"><button type="submit">Clear</button></form>`)

		h.raw(`<form method="post" action="/bulk-edit"><select name="field">`)
		for _, c := range core.EditableColumns() {
			h.raw(`<option`)
			h.attr("value", string(c.Key))
			h.raw(`>`)
			h.text(c.Label)
			h.raw(`</option>`)
		}
		h.raw(`</select><input name="value" placeholder="New value"><button type="submit">Apply to unlocked</button></form>`)
		h.raw(`</div>`)
	})
}

func parseErrors(errs []core.ParseError) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<details class="alert"><summary>`)
		h.text(strconv.Itoa(len(errs)) + " cells could not be read")
		h.raw(`</summary><ul>`)
		for _, e := range errs {
			h.raw(`<li>`)
			h.text(e.Error())
			h.raw(`</li>`)
		}
		h.raw(`</ul></details>`)
	})
}

var filterOps = []core.FilterOperation{core.OpContains, core.OpEquals, core.OpStartsWith, core.OpEndsWith}

func filterBar(active core.Filters) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="controls"><form method="post" action="/filters"><select name="column">`)
		for _, c := range core.Columns(false) {
			h.raw(`<option`)
			h.attr("value", string(c.Key))
			h.raw(`>`)
			h.text(c.Label)
			h.raw(`</option>`)
		}
		h.raw(`<option value="isLocked">Lock status</option></select><select name="operation">`)
		for _, op := range filterOps {
			h.raw(`<option`)
			h.attr("value", string(op))
			h.raw(`>`)
			h.text(string(op))
			h.raw(`</option>`)
		}
		h.raw(`</select><input name="value" placeholder="Filter value"><button type="submit">Filter</button></form>`)

		for _, f := range active {
			h.raw(`<form method="post"`)
			h.attr("action", "/filters/"+string(f.Column)+"/clear")
			h.raw(`><button type="submit">`)
			h.text(fmt.Sprintf("%s %s %q ✕", f.Column, f.Operation, f.Value))
			h.raw(`</button></form>`)
		}
		if len(active) > 0 {
			h.raw(`<form method="post" action="/filters/clear"><button type="submit">Clear filters</button></form>`)
		}
		h.raw(`</div>`)
	})
}

func gmdnSheet(rows []core.GMDNRecord) templ.Component {
	return component(func(_ context.Context, h *html) {
		if len(rows) == 0 {
			return
		}
		h.raw(`<h3>GMDN codes</h3><table><thead><tr><th>Device Identifier</th><th>Code</th><th>Term</th><th>Status</th><th>Locked</th></tr></thead><tbody>`)
		for _, g := range rows {
			h.raw(`<tr><td>`)
			h.text(g.DeviceIdentifier)
			h.raw(`</td><td>`)
			h.text(g.GMDNCode)
			h.raw(`</td><td>`)
			h.text(g.GMDNTerm)
			h.raw(`</td><td>`)
			h.text(string(g.Status))
			h.raw(`</td><td>`)
			h.text(strconv.FormatBool(g.IsLocked))
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}

// HistoryList renders the upload history, newest first.
func HistoryList(entries []core.UploadHistoryEntry) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="history"><h3>Upload history</h3>`)
		if len(entries) == 0 {
			h.raw(`<p>No uploads yet.</p></section>`)
			return
		}
		h.raw(`<ul>`)
		for _, e := range entries {
			h.raw(`<li><a`)
			h.attr("href", "/history/"+e.ID)
			h.raw(`>`)
			h.text(e.FileName)
			h.raw(`</a> `)
			h.text(e.Timestamp.Local().Format(time.DateTime))
			h.rawf(` &middot; %d records`, e.RecordCount)
			if !e.IsValid {
				h.rawf(` &middot; <span class="invalid">%d invalid</span>`, e.InvalidCount)
			}
			if e.WarningCount > 0 {
				h.rawf(` &middot; <span class="warning">%d warnings</span>`, e.WarningCount)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul><form method="post" action="/history/clear"><button type="submit">Clear history</button></form></section>`)
	})
}

// HistoryPage renders a past upload in a view-only grid.
func HistoryPage(e core.UploadHistoryEntry, records []core.Record, summary core.Summary) templ.Component {
	return Layout(e.FileName+" - UDI Editor", false, component(func(ctx context.Context, h *html) {
		h.raw(`<p><a href="/">&larr; Back to editor</a></p><h2>`)
		h.text(e.FileName)
		h.raw(`</h2><p>Uploaded `)
		h.text(e.Timestamp.Local().Format(time.DateTime))
		h.raw(` (view only)</p>`)
		h.render(ctx, SummaryBar(summary, len(records)))
		h.render(ctx, Grid(GridParams{Records: records, ViewOnly: true}))
	}))
}

// ErrorPage renders a full-page error.
func ErrorPage(msg core.UserMessage) templ.Component {
	return Layout("Error - UDI Editor", false, component(func(ctx context.Context, h *html) {
		h.render(ctx, ErrorAlert(msg.Message, msg.Action, msg.Code))
		h.raw(`<p><a href="/">Back to editor</a></p>`)
	}))
}
