package web

// fragments.go holds the HTML pieces HTMX clients swap in. They are plain
// templ components so handlers render them the same way as generated ones.

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ScanList/internal/core"
)

func esc(s string) string { return templ.EscapeString(s) }

// write renders a formatted fragment; arguments are escaped by the caller.
func write(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

// ErrorAlert renders a dismissible alert for a mapped error.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<div class="alert alert-error" role="alert" data-code="%s"><p class="alert-message">%s</p><p class="alert-action">%s</p><small>Code: %s</small></div>`,
			esc(msg.Code), esc(msg.Message), esc(msg.Action), esc(msg.Code))
	})
}

// StatusLine renders one status line. Alerts are carried in a data
// attribute for the client to pop up.
func StatusLine(st core.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var attrs strings.Builder
		if st.Alert != "" {
			fmt.Fprintf(&attrs, ` data-alert="%s"`, esc(st.Alert))
		}
		if st.Barcode != "" {
			fmt.Fprintf(&attrs, ` data-barcode="%s"`, esc(st.Barcode))
		}
		return write(w, `<p id="%s-status" class="status status-%s" data-seq="%d"%s>%s</p>`,
			esc(string(st.Channel)), esc(string(st.Kind)), st.Seq, attrs.String(), esc(st.Text))
	})
}

// StatusPanel renders the session state with both status lines.
func StatusPanel(snap core.SessionSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section id="session" data-state="%s">`, esc(string(snap.State))); err != nil {
			return err
		}
		if err := StatusLine(snap.ScanStatus).Render(ctx, w); err != nil {
			return err
		}
		if err := StatusLine(snap.ManualStatus).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</section>`)
	})
}

// ResultsList renders the scanned items newest first.
func ResultsList(entries []core.ResultEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(entries) == 0 {
			return write(w, `<ul id="results" class="results empty"></ul>`)
		}
		if err := write(w, `<ul id="results" class="results" data-count="%d">`, len(entries)); err != nil {
			return err
		}
		for _, e := range entries {
			err := write(w,
				`<li id="item-%s" data-barcode="%s"><span class="name">%s</span> <span class="uom">%s</span> <span class="price">%s</span> <code>%s</code></li>`,
				esc(e.Barcode), esc(e.Barcode), esc(e.Record.Name), esc(e.Record.UOM), esc(core.FormatPrice(e.Record.Price)), esc(e.Barcode))
			if err != nil {
				return err
			}
		}
		return write(w, `</ul>`)
	})
}

// CatalogStatus renders the catalog summary line.
func CatalogStatus(info core.CatalogInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w, `<span id="catalog-status" data-loaded="%t">%s</span>`, info.Loaded, esc(info.Text))
	})
}

// LoadResult renders the outcome of a successful upload, with a storage
// warning when the catalog could not be persisted.
func LoadResult(message string, warning *core.UserMessage, info core.CatalogInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div class="alert alert-success" role="status">%s</div>`, esc(message)); err != nil {
			return err
		}
		if warning != nil {
			if err := write(w, `<div class="alert alert-warning" role="alert" data-code="%s">%s %s</div>`,
				esc(warning.Code), esc(warning.Message), esc(warning.Action)); err != nil {
				return err
			}
		}
		return CatalogStatus(info).Render(ctx, w)
	})
}

// LookupResult renders a single product lookup.
func LookupResult(res lookupResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !res.Found {
			return write(w, `<p class="lookup not-found">Barcode %s not found.</p>`, esc(res.Barcode))
		}
		return write(w, `<p class="lookup found" data-barcode="%s"><span class="name">%s</span> <span class="uom">%s</span> <span class="price">%s</span></p>`,
			esc(res.Barcode), esc(res.Product.Name), esc(res.Product.UOM), esc(res.Price))
	})
}

// IndexPage renders the single-page scanner UI shell.
func IndexPage(info core.CatalogInfo, snap core.SessionSnapshot, entries []core.ResultEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>ScanList</title></head><body>` +
			`<header><h1>ScanList</h1>`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := CatalogStatus(info).Render(ctx, w); err != nil {
			return err
		}
		form := `</header><div id="alerts"></div>` +
			`<form id="catalog-form" method="post" action="/api/catalog" enctype="multipart/form-data" hx-post="/api/catalog" hx-target="#catalog-result" hx-encoding="multipart/form-data">` +
			`<input type="file" name="file" accept=".csv"><button type="submit">Load CSV</button></form><div id="catalog-result"></div>` +
			`<div class="controls"><button hx-post="/api/scan/start" hx-target="#session" hx-swap="outerHTML">Start scan</button>` +
			`<button hx-post="/api/scan/stop" hx-target="#session" hx-swap="outerHTML">Stop scan</button></div>` +
			`<form id="manual-form" hx-post="/api/manual" hx-target="#session" hx-swap="outerHTML"><input name="barcode" autocomplete="off" placeholder="Barcode"><button type="submit">Add</button></form>`
		if _, err := io.WriteString(w, form); err != nil {
			return err
		}
		if err := StatusPanel(snap).Render(ctx, w); err != nil {
			return err
		}
		if err := ResultsList(entries).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<button hx-delete="/api/results" hx-target="#results" hx-swap="outerHTML">Clear list</button></body></html>`)
		return err
	})
}
