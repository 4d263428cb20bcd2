package handler

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed openapi.yaml
var openAPISpec []byte

func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(openAPISpec); err != nil {
		slog.Error("failed to write openapi document", "error", err)
	}
}

func ServeDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(swaggerHTML)); err != nil {
		slog.Error("failed to write docs page", "error", err)
	}
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Credit Ledger API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/docs/openapi.yaml", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`
