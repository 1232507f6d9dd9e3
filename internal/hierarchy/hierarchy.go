package hierarchy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// ErrEmpty indicates a lattice file without any paths.
var ErrEmpty = errors.New("hierarchy has no paths")

// Path is a class followed by its ancestors.
type Path []string

// Class returns the class the path describes.
func (p Path) Class() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Hierarchy maps each class to every path declared for it.
type Hierarchy struct {
	paths map[string][]Path
	order []string
}

// Normalizer canonicalizes a class name before it is stored.
type Normalizer func(string) string

// Parse reads a tab-delimited lattice. Blank lines are ignored. When normalize
// is non-nil every name is passed through it.
func Parse(r io.Reader, normalize Normalizer) (*Hierarchy, error) {
	h := &Hierarchy{paths: make(map[string][]Path)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var path Path
		for _, name := range strings.Split(line, "\t") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if normalize != nil {
				name = normalize(name)
			}
			if name == "" {
				return nil, fmt.Errorf("line %d: name normalizes to empty string", lineNo)
			}
			path = append(path, name)
		}
		h.add(path)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	if len(h.order) == 0 {
		return nil, ErrEmpty
	}
	return h, nil
}

// Load parses the lattice file at path.
func Load(path string, normalize Normalizer) (*Hierarchy, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hierarchy: %w", err)
	}
	defer file.Close()
	h, err := Parse(file, normalize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

func (h *Hierarchy) add(path Path) {
	class := path.Class()
	if _, ok := h.paths[class]; !ok {
		h.order = append(h.order, class)
	}
	h.paths[class] = append(h.paths[class], path)
}

// Paths returns every path declared for class.
func (h *Hierarchy) Paths(class string) []Path {
	if h == nil {
		return nil
	}
	return h.paths[class]
}

// Classes lists keyed classes in file order.
func (h *Hierarchy) Classes() []string {
	if h == nil {
		return nil
	}
	return slices.Clone(h.order)
}

// Missing reports which of classes have no declared path.
func (h *Hierarchy) Missing(classes []string) []string {
	var missing []string
	for _, c := range classes {
		if len(h.Paths(c)) == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// Credit returns the partial credit for predicting predicted when truth is
// correct: the best score over every pairing of a true path with a predicted
// path, where a pairing scores 1/len(truePath) for each distinct predicted
// path name that also appears on the true path. Exact matches score 1.
func (h *Hierarchy) Credit(truth, predicted string) float64 {
	if truth == predicted {
		return 1
	}
	best := 0.0
	for _, tp := range h.Paths(truth) {
		for _, pp := range h.Paths(predicted) {
			if score := pairScore(tp, pp); score > best {
				best = score
			}
		}
	}
	return best
}

func pairScore(truePath, predictedPath Path) float64 {
	if len(truePath) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(predictedPath))
	shared := 0
	for _, name := range predictedPath {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if slices.Contains(truePath, name) {
			shared++
		}
	}
	score := float64(shared) / float64(len(truePath))
	return min(score, 1)
}
