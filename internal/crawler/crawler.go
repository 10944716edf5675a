package crawler

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentExt is the extension of MaterialX documents.
const DocumentExt = ".mtlx"

// Crawler scans a directory tree for MaterialX documents.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "node_modules", "testdata", "_examples"},
	}
}

// ScanDocuments walks root and calls onDocument for every .mtlx file, in lexical order.
// Unreadable directories are skipped instead of failing the whole scan.
func (c *Crawler) ScanDocuments(root string, onDocument func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip ignored directories
		if d.IsDir() {
			if path != root && c.isIgnored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), DocumentExt) {
			return nil
		}
		onDocument(path)
		return nil
	})
}

// Collect returns every document below root, sorted.
func (c *Crawler) Collect(root string) ([]string, error) {
	var paths []string
	err := c.ScanDocuments(root, func(path string) {
		paths = append(paths, path)
	})
	sort.Strings(paths)
	return paths, err
}

func (c *Crawler) isIgnored(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}
