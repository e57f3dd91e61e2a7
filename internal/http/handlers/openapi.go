package handlers

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"
	"strings"
)

//go:embed openapi.json
var openAPIDocument []byte

const (
	docsTitle     = "Artisan Reel API"
	redocBundle   = "https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"
	openAPISuffix = "/openapi.json"
)

var openAPIETag = func() string {
	sum := sha256.Sum256(openAPIDocument)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>body { margin: 0; } redoc { display: block; min-height: 100vh; }</style>
  </head>
  <body>
    <redoc spec-url="{{.SpecURL}}" expand-responses="200,201,202" required-props-first="true" hide-hostname="true"></redoc>
    <script src="{{.Bundle}}"></script>
  </body>
</html>`))

type docsView struct {
	Title   string
	SpecURL string
	Bundle  string
}

// OpenAPIJSON serves the embedded API description with a content ETag.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", openAPIETag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, openAPIETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(openAPIDocument)
}

// OpenAPIDocs renders Redoc against the document mounted next to this page.
func (a *App) OpenAPIDocs(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSuffix(r.URL.Path, "/")
	base = base[:strings.LastIndex(base, "/")+1]
	var buf bytes.Buffer
	err := docsPage.Execute(&buf, docsView{
		Title:   docsTitle,
		SpecURL: strings.TrimSuffix(base, "/") + openAPISuffix,
		Bundle:  redocBundle,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
