package handlers

import (
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiDoc []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>ict_assets API {{.Version}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
      deepLinking: true,
      persistAuthorization: true,
    });
  </script>
</body>
</html>`))

// stampVersion returns doc with info.version replaced by version. The
// embedded document is returned unchanged when version is empty or the
// document has no info mapping.
func stampVersion(doc []byte, version string) ([]byte, error) {
	if version == "" {
		return doc, nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return doc, nil
	}
	info := mappingValue(root.Content[0], "info")
	if info == nil {
		return doc, nil
	}
	if v := mappingValue(info, "version"); v != nil {
		v.Value = version
		v.Style = yaml.DoubleQuotedStyle
	}
	return yaml.Marshal(&root)
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// OpenAPISpec handles GET /openapi.yaml and serves the API description with
// info.version set to the running build.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc, err := stampVersion(openapiDoc, h.Version)
	if err != nil {
		slog.Error("failed to stamp openapi version", "error", err)
		doc = openapiDoc
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(doc)
}

// Docs handles GET /docs and serves the Swagger UI page for /openapi.yaml.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := docsPage.Execute(w, struct{ Version string }{h.Version}); err != nil {
		slog.Error("failed to render docs page", "error", err)
	}
}
