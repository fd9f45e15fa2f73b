// Package fetcher turns already-normalized text sources into corpus
// documents. Crawling and markup stripping happen upstream; this package
// only walks a directory of prepared markdown/text files, one document per
// file.
package fetcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docentlabs/docent/pkg/corpus"
)

// textExtensions are the file suffixes treated as normalized text.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

// FromDir loads every text file under dir (recursively) as a Document.
// Files are visited in sorted path order so repeated runs produce documents
// in a stable sequence.
func FromDir(dir string) ([]corpus.Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if textExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus dir %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]corpus.Document, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		docs = append(docs, corpus.NewDocument(path, string(raw)))
	}
	return docs, nil
}
