package http

import (
	_ "embed"
	"net/http"
)

var (
	//go:embed web/index.html
	indexPage []byte

	//go:embed web/404.html
	notFoundPage []byte
)

func writePage(w http.ResponseWriter, code int, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(page)
}

// HandleIndex serves the landing page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, indexPage)
}

// HandleNotFound serves the 404 page for unknown codes, unknown routes and
// unsupported methods.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusNotFound, notFoundPage)
}

func handleRedoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	redocHTML := `<!DOCTYPE html>
<html>
<head>
    <title>Linkie API Documentation - Redoc</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link href="https://fonts.googleapis.com/css?family=Montserrat:300,400,700|Roboto:300,400,700" rel="stylesheet">
    <style>
        body {
            margin: 0;
            padding: 0;
        }
    </style>
</head>
<body>
    <redoc spec-url='/swagger/doc.json'></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
	_, _ = w.Write([]byte(redocHTML))
}
