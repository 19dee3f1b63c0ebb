package templates

import (
	"context"
	"net/url"

	"github.com/JonMunkholm/dataforge/internal/core"
	"github.com/a-h/templ"
)

// FileView is the data behind a file's page.
type FileView struct {
	Preview      core.Preview
	Specs        []core.ChartSpec
	Choices      core.ChartChoices
	ChartWarning string
	Notice       string
	Warning      string
}

// FileDetail shows a file's preview, statistics, pipeline forms, and charts.
func FileDetail(v FileView) templ.Component {
	f := v.Preview.File
	return Layout(f.Name, component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1>`)
		h.text(f.Name)
		h.raw(`</h1><p class="muted">`)
		h.textf("%s, %.2f KB, %d rows, %d columns", f.Format, f.SizeKB(), v.Preview.Summary.Rows, len(v.Preview.Names))
		h.raw(`</p>`)
		h.component(ctx, Notice("info", v.Notice))
		h.component(ctx, Notice("warning", v.Warning))

		h.component(ctx, pipelineSection(f))
		h.component(ctx, shapeForm(f.ID, v.Preview.Names))
		h.component(ctx, previewTable(v.Preview))
		h.component(ctx, summaryTable(v.Preview.Summary))
		h.component(ctx, chartsSection(v))
	}))
}

func pipelineSection(f core.FileState) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		base := FileURL(f.ID)
		h.raw(`<section><h2>Pipeline</h2>`)
		if len(f.Steps) == 0 {
			h.raw(`<p class="muted">As uploaded.</p>`)
		} else {
			h.raw(`<ol>`)
			for _, s := range f.Steps {
				h.raw(`<li>`)
				h.text(s)
				h.raw(`</li>`)
			}
			h.raw(`</ol>`)
		}
		h.raw(`<p>`)
		h.component(ctx, postButton(base+"/clean/"+string(core.OpRemoveDuplicates), "Remove duplicates"))
		h.raw(` `)
		h.component(ctx, postButton(base+"/clean/"+string(core.OpFillMissing), "Fill missing numbers"))
		h.raw(` `)
		h.component(ctx, postButton(base+"/reset", "Reset"))
		h.raw(` `)
		h.component(ctx, postButton(base+"/delete", "Delete"))
		h.raw(`</p><p>Download: <a href="`)
		h.text(base + "/export/csv")
		h.raw(`">CSV</a> | <a href="`)
		h.text(base + "/export/excel")
		h.raw(`">Excel</a></p></section>`)
	})
}

func shapeForm(fileID string, names []string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section><h2>Columns</h2><form method="post" action="`)
		h.text(FileURL(fileID) + "/shape")
		h.raw(`"><table><thead><tr><th>Keep</th><th>Column</th><th>Rename to</th></tr></thead><tbody>`)
		for _, n := range names {
			h.raw(`<tr><td><input type="checkbox" name="columns" checked value="`)
			h.text(n)
			h.raw(`"></td><td>`)
			h.text(n)
			h.raw(`</td><td><input type="text" name="`)
			h.text(RenameField(n))
			h.raw(`" placeholder="`)
			h.text(n)
			h.raw(`"></td></tr>`)
		}
		h.raw(`</tbody></table><button type="submit">Apply</button></form></section>`)
	})
}

// RenameField is the form field carrying the new name for column name.
func RenameField(name string) string {
	return "rename." + name
}

func previewTable(p core.Preview) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section><h2>Preview</h2><table><thead><tr>`)
		for _, n := range p.Names {
			h.raw(`<th>`)
			h.text(n)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></section>`)
	})
}

func summaryTable(s core.Summary) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section><h2>Statistics</h2><table><thead><tr>`)
		for _, th := range []string{"Column", "Kind", "Count", "Missing", "Mean", "Std", "Min", "25%", "50%", "75%", "Max", "Unique", "Top"} {
			h.raw(`<th>`)
			h.text(th)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, c := range s.Columns {
			h.raw(`<tr><td>`)
			h.text(c.Name)
			h.raw(`</td><td>`)
			h.text(c.Kind)
			h.raw(`</td><td>`)
			h.textf("%d", c.Count)
			h.raw(`</td><td>`)
			h.textf("%d", c.Missing)
			for _, v := range []*float64{c.Mean, c.Std, c.Min, c.Q1, c.Median, c.Q3, c.Max} {
				h.raw(`</td><td>`)
				if v != nil {
					h.textf("%.4g", *v)
				}
			}
			h.raw(`</td><td>`)
			if c.Kind == core.KindText.String() {
				h.textf("%d", c.Unique)
			}
			h.raw(`</td><td>`)
			h.text(c.Top)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></section>`)
	})
}

func chartsSection(v FileView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		f := v.Preview.File
		h.raw(`<section><h2>Charts</h2>`)
		if v.ChartWarning != "" {
			h.component(ctx, Notice("warning", v.ChartWarning))
			h.raw(`</section>`)
			return
		}

		var numeric, text []string
		for _, c := range v.Preview.Summary.Columns {
			if c.Kind == core.KindNumeric.String() {
				numeric = append(numeric, c.Name)
			} else {
				text = append(text, c.Name)
			}
		}

		h.raw(`<form method="get" action="`)
		h.text(FileURL(f.ID))
		h.raw(`">`)
		if len(numeric) >= 2 {
			h.component(ctx, columnSelect("x", "X axis", numeric, v.Choices.X))
			h.component(ctx, columnSelect("y", "Y axis", numeric, v.Choices.Y))
		}
		if len(text) > 0 {
			h.component(ctx, columnSelect("category", "Category", text, v.Choices.Category))
			h.component(ctx, columnSelect("value", "Value", numeric, v.Choices.Value))
		}
		h.raw(`<button type="submit">Update charts</button></form>`)

		query := ChartQuery(v.Choices)
		for _, spec := range v.Specs {
			h.raw(`<h3>`)
			h.text(spec.Title)
			h.raw(`</h3><img class="chart" alt="`)
			h.text(spec.Title)
			h.raw(`" src="`)
			h.text(FileURL(f.ID) + "/charts/" + string(spec.Kind) + ".png" + query)
			h.raw(`">`)
		}
		h.raw(`</section>`)
	})
}

// ChartQuery encodes non-blank choices as a query string, "" when none.
func ChartQuery(c core.ChartChoices) string {
	q := url.Values{}
	for k, v := range map[string]string{"x": c.X, "y": c.Y, "category": c.Category, "value": c.Value} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func columnSelect(name, label string, options []string, selected string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<label>`)
		h.text(label)
		h.raw(` <select name="`)
		h.text(name)
		h.raw(`"><option value="">(default)</option>`)
		for _, o := range options {
			h.raw(`<option value="`)
			h.text(o)
			h.raw(`"`)
			if o == selected {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(o)
			h.raw(`</option>`)
		}
		h.raw(`</select></label> `)
	})
}
