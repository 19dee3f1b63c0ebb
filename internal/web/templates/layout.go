package templates

import (
	"context"

	"github.com/a-h/templ"
)

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{background:#1e293b;color:#fff;padding:12px 24px}header a{color:#fff;text-decoration:none;font-weight:600}
main{max-width:1100px;margin:0 auto;padding:24px}
section{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:16px;margin-bottom:16px}
table{border-collapse:collapse;width:100%;font-size:14px}th,td{border-bottom:1px solid #e2e8f0;padding:4px 8px;text-align:left}
.alert{padding:12px;border-radius:6px;margin-bottom:16px}.alert-error{background:#fee2e2;color:#991b1b}
.alert-warning{background:#fef3c7;color:#92400e}.alert-info{background:#dbeafe;color:#1e40af}
.muted{color:#64748b;font-size:13px}.inline{display:inline}button{cursor:pointer}
img.chart{max-width:100%;border:1px solid #e2e8f0;margin:8px 0}`

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(` | DataForge</title><style>`)
		h.raw(styles)
		h.raw(`</style></head><body><header><a href="/">DataForge</a></header><main>`)
		h.component(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div class="alert alert-error" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		if code != "" {
			h.raw(` <span class="muted">(Code: `)
			h.text(code)
			h.raw(`)</span>`)
		}
		h.raw(`</div>`)
	})
}

// Notice renders an informational or warning banner. An empty message
// renders nothing.
func Notice(kind, message string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		if message == "" {
			return
		}
		class := "alert-info"
		if kind == "warning" {
			class = "alert-warning"
		}
		h.raw(`<div class="alert ` + class + `">`)
		h.text(message)
		h.raw(`</div>`)
	})
}

// ErrorPage is a full page around ErrorAlert.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", component(func(ctx context.Context, h *htmlWriter) {
		h.component(ctx, ErrorAlert(message, action, code))
		h.raw(`<p><a href="/">Back to files</a></p>`)
	}))
}
