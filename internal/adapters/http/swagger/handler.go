// Package swagger serves the OpenAPI document and a ReDoc page for it.
package swagger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

// ErrDocument reports an embedded OpenAPI document that does not parse.
var ErrDocument = errors.New("invalid OpenAPI document")

// OpenAPI is the API description served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

// RedocScript is loaded by the docs page.
const RedocScript = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Info is the document's info block.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// DocumentInfo parses the info block of the embedded document.
func DocumentInfo() (Info, error) {
	var doc struct {
		Info Info `yaml:"info"`
	}
	if err := yaml.Unmarshal(OpenAPI, &doc); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrDocument, err)
	}
	if doc.Info.Title == "" {
		return Info{}, fmt.Errorf("%w: missing info.title", ErrDocument)
	}
	return doc.Info, nil
}

// Register attaches the docs routes to mux.
//
//	GET /api-docs       -> ReDoc HTML
//	GET /openapi.yaml   -> embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	info, err := DocumentInfo()
	if err != nil {
		panic(err)
	}
	page := fmt.Sprintf(pageTemplate, info.Title, RedocScript)

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("X-API-Version", info.Version)
		_, _ = w.Write(OpenAPI)
	})
}

const pageTemplate = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="%s"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
