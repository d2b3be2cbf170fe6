package env

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"
)

// LoadOptions controls which dotenv files are merged into a Snapshot.
type LoadOptions struct {
	// Root is the directory holding the .env files. Defaults to ".".
	Root string
	// Mode selects the .env.<mode> and .env.<mode>.local files.
	Mode string
	// Environ is the process environment, normally os.Environ().
	// It takes precedence over every file.
	Environ []string
}

// Files returns the dotenv file names consulted for mode, lowest precedence first.
func Files(mode string) []string {
	files := []string{".env", ".env.local"}
	if mode != "" {
		files = append(files, ".env."+mode, ".env."+mode+".local")
	}
	return files
}

// Load merges the dotenv files under opts.Root with opts.Environ.
// Missing files are skipped; a file that cannot be parsed is an error.
func Load(opts LoadOptions) (Snapshot, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	vars := make(map[string]string)
	for _, name := range Files(opts.Mode) {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
		}

		parsed, err := gotenv.StrictParse(bytes.NewReader(data))
		if err != nil {
			return Snapshot{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		for k, v := range parsed {
			vars[k] = v
		}
	}

	process := FromEnviron(opts.Environ)
	for k, v := range process.vars {
		vars[k] = v
	}

	return Snapshot{vars: vars}, nil
}
