package archive

import (
	"fmt"
	"os"
	"strings"
)

// Open returns the source for path, choosing the variant from the file type:
// a directory, a ZIP file (.zip), or a tar file (.tar, .tar.gz, .tgz,
// .tar.xz, .txz).
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if info.IsDir() {
		return OpenDir(path)
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return OpenZip(path)
	case strings.HasSuffix(lower, ".tar"),
		strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"),
		strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return OpenTar(path)
	default:
		return nil, fmt.Errorf("open archive: unsupported archive format: %s", path)
	}
}
