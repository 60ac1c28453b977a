package assets

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ErrMissingAsset = errors.New("missing asset")

// LoadIntro reads the introduction text. A missing or blank file is fatal for startup.
func LoadIntro(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: intro text '%s': %v", ErrMissingAsset, path, err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: intro text '%s' is empty", ErrMissingAsset, path)
	}
	return text, nil
}

var photoName = regexp.MustCompile(`(?i)^(\d+)\.(jpe?g|png)$`)

// Gallery is the ordered list of numbered photos found on disk.
type Gallery struct {
	paths []string
}

// LoadGallery collects files named like 001.jpg from dir, ordered by number. Gaps in
// the numbering are skipped. A missing directory yields an empty gallery.
func LoadGallery(dir string) (*Gallery, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: gallery directory '%s' not found, photo gallery disabled", dir)
			return &Gallery{}, nil
		}
		return nil, fmt.Errorf("failed to read gallery directory '%s': %w", dir, err)
	}

	type numbered struct {
		n    int
		path string
	}
	var found []numbered
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := photoName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	g := &Gallery{paths: make([]string, 0, len(found))}
	for _, f := range found {
		g.paths = append(g.paths, f.path)
	}
	log.Printf("Gallery loaded from '%s': %d photos", dir, len(g.paths))
	return g, nil
}

// NewGallery builds a gallery from explicit paths.
func NewGallery(paths ...string) *Gallery {
	return &Gallery{paths: append([]string(nil), paths...)}
}

func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.paths)
}

// Photo returns the path for a 1-based index, wrapping indexes past the end.
func (g *Gallery) Photo(index int) (string, bool) {
	n := g.Len()
	if n == 0 || index <= 0 {
		return "", false
	}
	return g.paths[(index-1)%n], true
}
