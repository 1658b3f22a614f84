package templates

import (
	"context"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{display:flex;justify-content:space-between;align-items:center;padding:12px 20px;background:#1e293b;color:#fff}
header a{color:#cbd5e1;text-decoration:none;margin-left:12px}
main{padding:16px 20px}
.summary span{display:inline-block;margin-right:12px;padding:2px 8px;border-radius:10px;font-size:13px}
.valid{background:#dcfce7}.warning{background:#fef9c3}.invalid{background:#fee2e2}.pending{background:#e2e8f0}
.alert{padding:10px 14px;border-radius:6px;background:#fee2e2;border:1px solid #fca5a5;margin-bottom:12px}
.grid{display:flex;border:1px solid #cbd5e1;background:#fff}
.grid .frozen{flex:none;border-right:2px solid #94a3b8}
.grid .scroll{overflow-x:auto;flex:1}
table{border-collapse:collapse;font-size:13px}
th,td{border-bottom:1px solid #e2e8f0;padding:4px 8px;white-space:nowrap;text-align:left;height:24px}
th{background:#f1f5f9}
td.locked{color:#64748b;background:#f8fafc}
td.editing{outline:2px solid #3b82f6}
form.cell-edit{display:inline;margin:0}
form.cell-edit button{border:0;background:none;padding:0;font:inherit;color:#1d4ed8;cursor:text;text-align:left}
td.has-error{background:#fef2f2}
td.has-warning{background:#fefce8}
.history li{margin:4px 0}
.controls{margin:12px 0;display:flex;gap:8px;flex-wrap:wrap}
`

const liveReload = `
(function(){
  if(!window.WebSocket)return;
  var proto=location.protocol==="https:"?"wss://":"ws://";
  var ws=new WebSocket(proto+location.host+"/ws");
  ws.onmessage=function(){clearTimeout(window.__udiReload);window.__udiReload=setTimeout(function(){location.reload()},250)};
})();
`

// Layout wraps body in the page shell. live enables the change feed.
func Layout(title string, live bool, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(`</title><meta name="viewport" content="width=device-width, initial-scale=1"><style>`)
		h.raw(styles)
		h.raw(`</style></head><body><header><strong>UDI Editor</strong><nav>`)
		h.raw(`<a href="/">Editor</a><a href="/api/export/json">Export JSON</a><a href="/api/export/xlsx">Export XLSX</a>`)
		h.raw(`</nav></header><main>`)
		h.render(ctx, body)
		h.raw(`</main>`)
		if live {
			h.raw(`<script>` + liveReload + `</script>`)
		}
		h.raw(`</body></html>`)
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		h.raw(` <small>(Code: `)
		h.text(code)
		h.raw(`)</small></div>`)
	})
}
