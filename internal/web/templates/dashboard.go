package templates

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/dataforge/internal/core"
	"github.com/a-h/templ"
)

// UploadResult is the outcome of one file in an upload request.
// Exactly one of File and Error is set.
type UploadResult struct {
	Name  string
	File  *core.FileState
	Error *core.UserMessage
}

// DashboardView is the data behind the home page.
type DashboardView struct {
	Files         []core.FileState
	Results       []UploadResult
	Notice        string
	MaxFiles      int
	MaxFileSizeMB int64
}

// Dashboard lists the session's files and offers the upload form.
func Dashboard(v DashboardView) templ.Component {
	return Layout("Files", component(func(ctx context.Context, h *htmlWriter) {
		h.component(ctx, Notice("info", v.Notice))
		if len(v.Results) > 0 {
			h.component(ctx, UploadResults(v.Results))
		}

		h.raw(`<section><h2>Upload</h2>`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="files" accept=".csv,.xlsx" multiple required> `)
		h.raw(`<button type="submit">Upload</button></form>`)
		h.raw(`<p class="muted">`)
		h.textf("CSV or Excel (.xlsx), up to %d files of %d MB each.", v.MaxFiles, v.MaxFileSizeMB)
		h.raw(`</p></section>`)

		h.raw(`<section><h2>Your files</h2>`)
		if len(v.Files) == 0 {
			h.raw(`<p class="muted">No files yet.</p></section>`)
			return
		}
		h.raw(`<table><thead><tr><th>Name</th><th>Format</th><th>Rows</th><th>Columns</th><th>Size (KB)</th><th>Steps</th><th></th></tr></thead><tbody>`)
		for _, f := range v.Files {
			h.raw(`<tr><td><a href="`)
			h.text(FileURL(f.ID))
			h.raw(`">`)
			h.text(f.Name)
			h.raw(`</a></td><td>`)
			h.text(f.Format.String())
			h.raw(`</td><td>`)
			h.textf("%d", f.Current.NumRows())
			h.raw(`</td><td>`)
			h.textf("%d", f.Current.NumColumns())
			h.raw(`</td><td>`)
			h.textf("%.2f", f.SizeKB())
			h.raw(`</td><td>`)
			h.textf("%d", len(f.Steps))
			h.raw(`</td><td>`)
			h.component(ctx, postButton(FileURL(f.ID)+"/delete", "Delete"))
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></section>`)
	}))
}

// UploadResults reports each file of an upload on its own line.
func UploadResults(results []UploadResult) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section><h2>Upload results</h2><ul>`)
		for _, r := range results {
			h.raw(`<li><strong>`)
			h.text(r.Name)
			h.raw(`</strong>: `)
			if r.Error != nil {
				h.component(ctx, ErrorAlert(r.Error.Message, r.Error.Action, r.Error.Code))
				h.raw(`</li>`)
				continue
			}
			h.textf("%d rows, %d columns, %.2f KB ", r.File.Current.NumRows(), r.File.Current.NumColumns(), r.File.SizeKB())
			h.raw(`<a href="`)
			h.text(FileURL(r.File.ID))
			h.raw(`">Open</a></li>`)
		}
		h.raw(`</ul></section>`)
	})
}

// FileURL is the page of one file.
func FileURL(id string) string {
	return fmt.Sprintf("/files/%s", id)
}

func postButton(action, label string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<form class="inline" method="post" action="`)
		h.text(action)
		h.raw(`"><button type="submit">`)
		h.text(label)
		h.raw(`</button></form>`)
	})
}
