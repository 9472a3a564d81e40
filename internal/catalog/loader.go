package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/benjamincozon/shopassist/internal/models"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

// Source loads the raw product list a snapshot is built from
type Source interface {
	Load(ctx context.Context) ([]models.Product, error)
}

// document is the on-disk catalog format
type document struct {
	Products []models.Product `json:"products"`
}

// Parse decodes a catalog document
func Parse(r io.Reader) ([]models.Product, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Products, nil
}

// FileSource reads a JSON catalog document from disk
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]models.Product, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// EmbeddedSource serves the catalog compiled into the binary
type EmbeddedSource struct{}

func (EmbeddedSource) Load(ctx context.Context) ([]models.Product, error) {
	var doc document
	if err := json.Unmarshal(embeddedCatalog, &doc); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return doc.Products, nil
}

// Default builds a snapshot of the embedded catalog
func Default() (*Catalog, error) {
	products, err := EmbeddedSource{}.Load(context.Background())
	if err != nil {
		return nil, err
	}
	c, _, err := New(products)
	return c, err
}
