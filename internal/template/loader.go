package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// Catalog is the on-disk form of a set of product and solution templates.
//
// Example YAML representation:
//
//	products:
//	  - id: secure-access
//	    name: Secure Access
//	    tasks:
//	      - id: tt-sso
//	        name: Configure SSO
//	        weight: 40
//	        license_level: ESSENTIAL
//	solutions:
//	  - id: zero-trust
//	    products:
//	      - product_id: secure-access
//	        weight: 100
type Catalog struct {
	Products  []domain.Product  `yaml:"products" json:"products"`
	Solutions []domain.Solution `yaml:"solutions,omitempty" json:"solutions,omitempty"`
}

// Loader loads catalogs from files.
type Loader struct {
	basePath string
}

// NewLoader creates a new catalog loader.
// basePath is used to resolve relative catalog paths (typically project root).
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadFromFile loads and validates a catalog from a YAML or JSON file.
// The format is detected from the extension (.json for JSON, otherwise YAML).
func (l *Loader) LoadFromFile(path string) (*Catalog, error) {
	resolvedPath := l.resolvePath(path)

	data, err := os.ReadFile(resolvedPath) //nolint:gosec // Path is resolved from user config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", adopterrors.ErrTemplateFileMissing, resolvedPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: permission denied: %s", adopterrors.ErrTemplateLoadFailed, resolvedPath)
		}
		return nil, fmt.Errorf("%w: %w", adopterrors.ErrTemplateLoadFailed, err)
	}

	catalog, err := Parse(data, detectFormat(path))
	if err != nil {
		return nil, err
	}

	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Parse decodes a catalog in the given format ("json" or "yaml").
// It does not validate.
func Parse(data []byte, format string) (*Catalog, error) {
	var catalog Catalog
	if format == "json" {
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("%w: %w", adopterrors.ErrTemplateParseError, err)
		}
		return &catalog, nil
	}

	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %w", adopterrors.ErrTemplateParseError, err)
	}
	return &catalog, nil
}

// resolvePath resolves a catalog path relative to the loader's basePath.
func (l *Loader) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.basePath, path)
}

// detectFormat returns "json" for .json files, "yaml" for everything else.
func detectFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
