package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// GridParams holds what the record grid needs to render.
type GridParams struct {
	Records  []core.Record
	ViewOnly bool
	Cursor   core.EditCursor
}

// Grid renders the record table split into a frozen region (the identity
// columns) and a horizontally scrolling region. Both regions render the
// same rows in the same order so they line up.
func Grid(p GridParams) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div class="grid">`)
		h.raw(`<div class="frozen">`)
		h.render(ctx, region(p, core.FrozenColumns(p.ViewOnly), true))
		h.raw(`</div><div class="scroll">`)
		h.render(ctx, region(p, core.ScrollableColumns(p.ViewOnly), false))
		h.raw(`</div></div>`)
	})
}

func region(p GridParams, cols []core.Column, frozen bool) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<table><thead><tr>`)
		if frozen && !p.ViewOnly {
			h.raw(`<th>Lock</th>`)
		}
		for _, c := range cols {
			h.raw(`<th`)
			h.attr("style", "min-width:"+c.Width)
			h.raw(`>`)
			h.text(c.Label)
			if c.Required {
				h.raw(` *`)
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		if len(p.Records) == 0 && frozen {
			h.raw(`<tr><td colspan="3">No records. Upload a file or load demo data.</td></tr>`)
		}
		for _, r := range p.Records {
			h.raw(`<tr`)
			h.attr("id", "row-"+r.ID)
			h.raw(`>`)
			if frozen && !p.ViewOnly {
				label := "Unlocked"
				if r.IsLocked {
					label = "Locked"
				}
				h.raw(`<td><form method="post"`)
				h.attr("action", "/records/"+r.ID+"/lock")
				h.raw(`><button type="submit">`)
				h.text(label)
				h.raw(`</button></form></td>`)
			}
			for _, c := range cols {
				cell(h, p, r, c)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}

func cell(h *html, p GridParams, r core.Record, c core.Column) {
	errs, warns := core.IssuesFor(r, c.Key)

	editing := p.Cursor.State == core.EditEditing && p.Cursor.RowID == r.ID && p.Cursor.Column == c.Key
	cls := classes(
		when(r.IsLocked, "locked"),
		when(editing, "editing"),
		when(len(errs) > 0, "has-error"),
		when(len(errs) == 0 && len(warns) > 0, "has-warning"),
	)

	h.raw(`<td`)
	if cls != "" {
		h.attr("class", cls)
	}
	if tip := issueText(errs, warns); tip != "" {
		h.attr("title", tip)
	}
	h.raw(`>`)

	value := core.FieldValue(r, c.Key)
	switch {
	case c.Key == core.FieldStatus:
		h.raw(`<span`)
		h.attr("class", value)
		h.raw(`>`)
		h.text(value)
		h.raw(`</span>`)
	case editing:
		h.raw(`<form method="post" action="/cell/commit"><input name="value" autofocus`)
		h.attr("value", p.Cursor.Pending)
		h.raw(`><button type="submit">Save</button>`)
		h.raw(`<button type="submit" formaction="/cell/cancel">Cancel</button></form>`)
	case c.Editable && !p.ViewOnly && !r.IsLocked:
		h.raw(`<form method="post" action="/cell/edit" class="cell-edit"><input type="hidden" name="id"`)
		h.attr("value", r.ID)
		h.raw(`><input type="hidden" name="column"`)
		h.attr("value", string(c.Key))
		h.raw(`><button type="submit">`)
		h.text(displayValue(c, value))
		h.raw(`</button></form>`)
	default:
		h.text(displayValue(c, value))
	}
	h.raw(`</td>`)
}

func displayValue(c core.Column, v string) string {
	if c.Type != core.FieldBool {
		return v
	}
	if v == "true" {
		return "Yes"
	}
	return "No"
}

func issueText(errs, warns []core.Issue) string {
	parts := make([]string, 0, len(errs)+len(warns))
	for _, e := range errs {
		parts = append(parts, e.Message)
	}
	for _, w := range warns {
		parts = append(parts, w.Message)
	}
	return strings.Join(parts, "\n")
}

func when(ok bool, s string) string {
	if ok {
		return s
	}
	return ""
}
