// Package openapi embeds the API description and serves it as JSON
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Load parses and validates the embedded document
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// Operations lists every documented operation as "METHOD /full/path",
// including the first server's base path, sorted.
func Operations(doc *openapi3.T) []string {
	base := ""
	if len(doc.Servers) > 0 {
		base = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	var ops []string
	if doc.Paths == nil {
		return ops
	}
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, strings.ToUpper(method)+" "+base+path)
		}
	}
	sort.Strings(ops)
	return ops
}

// Handler serves the validated document
type Handler struct {
	body []byte
}

// NewHandler loads the document once and renders it as JSON
func NewHandler(ctx context.Context) (*Handler, error) {
	doc, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	return &Handler{body: body}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(h.body)
}
