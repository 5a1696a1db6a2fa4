// Package export writes the filtered records to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFilename is the name used when none is configured.
const DefaultFilename = "exported_data.json"

// writeFile is replaced in tests.
var writeFile = os.WriteFile

// ToFile writes data to dir/filename and returns the path written. An empty
// filename uses DefaultFilename; an empty dir uses the working directory.
func ToFile(dir, filename string, data []byte) (string, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("export filename %q must not contain a directory", filename)
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filename)
	if err := writeFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("exporting to %s: %w", path, err)
	}
	return path, nil
}
