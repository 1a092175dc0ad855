package capture

import "github.com/hazyhaar/pagesnap/capture/internal/catalog"

// Catalog is the SQLite record of past captures.
type Catalog = catalog.Catalog

// CatalogEntry is one catalog row without the report body.
type CatalogEntry = catalog.Entry

// OpenCatalog opens (or creates) the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	return catalog.Open(path)
}
