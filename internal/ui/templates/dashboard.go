package templates

import (
	"encoding/json"

	"github.com/a-h/templ"

	"confectionary-dashboard/internal/models"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

const dateInputLayout = "2006-01-02"

// pageSignals seeds the datastar store. The keys match what the SSE
// handlers read back.
type pageSignals struct {
	Regions  []string `json:"regions"`
	Products []string `json:"products"`
	From     string   `json:"from"`
	To       string   `json:"to"`
}

// Dashboard is the full page. Panels start as placeholders and are filled by
// the refresh-all stream once the page loads.
func Dashboard(opts models.FilterOptions) templ.Component {
	return component(func(h *htmlWriter) {
		signals := pageSignals{Regions: []string{}, Products: []string{}}
		if !opts.MinDate.IsZero() {
			signals.From = opts.MinDate.Format(dateInputLayout)
			signals.To = opts.MaxDate.Format(dateInputLayout)
		}
		encoded, err := json.Marshal(signals)
		if err != nil {
			h.err = err
			return
		}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Confectionary Sales Dashboard</title>`)
		h.rawf(`<script type="module" src="%s"></script>`, datastarScript)
		h.raw(`<style>` + pageStyle + `</style></head>`)

		h.rawf(`<body data-signals="%s" data-init="@get('/sse/refresh-all')">`, templ.EscapeString(string(encoded)))
		h.raw(`<aside class="sidebar"><h2>Filters</h2>`)

		h.raw(`<label for="f-regions">Region</label><select id="f-regions" multiple data-bind:regions>`)
		for _, region := range opts.Regions {
			option(h, region)
		}
		h.raw(`</select>`)

		h.raw(`<label for="f-products">Product</label><select id="f-products" multiple data-bind:products>`)
		for _, product := range opts.Products {
			option(h, product)
		}
		h.raw(`</select>`)

		dateBounds := ""
		if !opts.MinDate.IsZero() {
			dateBounds = ` min="` + opts.MinDate.Format(dateInputLayout) + `" max="` + opts.MaxDate.Format(dateInputLayout) + `"`
		}
		h.raw(`<label for="f-from">From</label><input id="f-from" type="date" data-bind:from` + dateBounds + `>`)
		h.raw(`<label for="f-to">To</label><input id="f-to" type="date" data-bind:to` + dateBounds + `>`)
		h.raw(`<button data-on:click="@get('/sse/refresh-all')">Apply</button>`)
		h.raw(`<p class="hint">Leave a list empty to include everything.</p></aside>`)

		h.raw(`<main><h1>Confectionary Sales</h1>`)
		h.rawf(`<div id="%s" class="load-report"></div>`, ReportID)
		placeholder(h, "section", KPICardsID, "Loading KPIs…")
		panel(h, RegionalID, "Loading regional summary…")
		panel(h, ProductsID, "Loading product summary…")
		panel(h, MatrixID, "Loading region and product margins…")
		panel(h, MonthlyID, "Loading monthly trends…")
		h.raw(`</main></body></html>`)
	})
}

func option(h *htmlWriter, value string) {
	h.raw(`<option value="`)
	h.text(value)
	h.raw(`">`)
	h.text(labelOrUnknown(value))
	h.raw(`</option>`)
}

func panel(h *htmlWriter, id, loading string) {
	h.raw(`<section class="panel">`)
	placeholder(h, "div", id, loading)
	h.raw(`</section>`)
}

func placeholder(h *htmlWriter, tag, id, loading string) {
	h.rawf(`<%s id="%s" class="panel-body loading">`, tag, id)
	h.text(loading)
	h.rawf(`</%s>`, tag)
}

const pageStyle = `
body{margin:0;display:flex;font-family:system-ui,sans-serif;color:#2b2118;background:#fbf7f2}
.sidebar{width:240px;padding:1rem;background:#f1e6da;min-height:100vh;box-sizing:border-box}
.sidebar label{display:block;margin-top:.75rem;font-weight:600}
.sidebar select,.sidebar input,.sidebar button{width:100%;margin-top:.25rem}
.sidebar select{height:8rem}
.hint{font-size:.8rem;color:#6b5a4b}
main{flex:1;padding:1rem 2rem}
.kpi-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(150px,1fr));gap:.75rem}
.kpi-card{background:#fff;border-radius:8px;padding:.75rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.kpi-label{display:block;font-size:.8rem;color:#6b5a4b}
.kpi-value{font-size:1.3rem;font-weight:700}
.panel{background:#fff;border-radius:8px;margin-top:1rem;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.1);overflow-x:auto}
.modern-table,.heatmap{border-collapse:collapse;width:100%}
.modern-table th,.modern-table td,.heatmap th,.heatmap td{padding:.35rem .5rem;border-bottom:1px solid #eee;text-align:left}
.num{text-align:right}
.loss{color:#b0302a}
.bar-cell{width:25%}
.bar{display:inline-block;height:.7rem;background:#a0522d;border-radius:3px}
.heat-empty{background:#f5f5f5}
.empty-state{color:#6b5a4b;font-style:italic}
.loading{color:#999}
.badge{background:#f1e6da;border-radius:4px;padding:0 .4rem;margin-left:.25rem;font-size:.8rem}
`
