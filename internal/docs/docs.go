package docs

import (
	_ "embed"
	"net/http"
)

const (
	Path     = "/api/v1/docs"
	SpecPath = Path + "/openapi.yaml"
)

//go:embed openapi.yaml
var specYAML []byte

// The API answers with default-src 'none'; the reference page needs the
// viewer script and styles from jsDelivr and fetches the spec from this host.
const docsCSP = "default-src 'none'; " +
	"script-src https://cdn.jsdelivr.net 'unsafe-inline'; " +
	"style-src https://cdn.jsdelivr.net 'unsafe-inline'; " +
	"font-src https://cdn.jsdelivr.net data:; " +
	"img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'"

// HandleSpec serves the embedded OpenAPI document.
func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(specYAML)
}

// HandleDocs serves a reference page for SpecPath, grouped by resource tag.
func HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", docsCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}

const docsHTML = `<!DOCTYPE html>
<html><head>
  <title>VidTube API v1</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" data-url="` + SpecPath + `"
    data-configuration='{"layout":"classic","defaultOpenAllTags":false,"hideDownloadButton":false,"authentication":{"preferredSecurityScheme":"bearerAuth"}}'></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`
