package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mireval/internal/experiment"
)

// Manifest declares an experiment's folds.
//
//	folds:
//	  - id: fold1
//	    number: 1
//	    set: test
//	    tracks: fold1.txt
//	  - id: fold2
//	    track_ids: [t3, t4]
//	classes: onset_classes.txt
type Manifest struct {
	Dataset struct {
		ID          int    `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"dataset"`
	Folds   []FoldEntry `yaml:"folds"`
	Classes string      `yaml:"classes"`

	dir string
}

// FoldEntry is one fold in a manifest. Tracks names a track list file
// relative to the manifest; TrackIDs lists tracks inline.
type FoldEntry struct {
	ID       string   `yaml:"id"`
	Number   int      `yaml:"number"`
	Set      string   `yaml:"set"`
	Tracks   string   `yaml:"tracks"`
	TrackIDs []string `yaml:"track_ids"`
}

// LoadManifest parses a YAML fold manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Folds) == 0 {
		return nil, fmt.Errorf("manifest %s declares no folds", path)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Resolve makes a manifest-relative path absolute.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

// ClassesPath returns the resolved onset class file, or "".
func (m *Manifest) ClassesPath() string {
	return m.Resolve(m.Classes)
}

// ExperimentFolds builds the declared folds, reading track list files.
func (m *Manifest) ExperimentFolds() ([]experiment.Fold, error) {
	folds := make([]experiment.Fold, 0, len(m.Folds))
	seen := make(map[string]struct{}, len(m.Folds))
	for i, entry := range m.Folds {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = fmt.Sprintf("fold%d", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("fold %q declared twice", id)
		}
		seen[id] = struct{}{}

		kind := experiment.SetTest
		switch strings.ToLower(strings.TrimSpace(entry.Set)) {
		case "", "test":
		case "training", "train":
			kind = experiment.SetTraining
		default:
			return nil, fmt.Errorf("fold %s: unknown set %q", id, entry.Set)
		}

		number := entry.Number
		if number == 0 {
			number = i + 1
		}
		tracks := make([]string, 0, len(entry.TrackIDs))
		for _, ref := range entry.TrackIDs {
			if tid := TrackID(ref); tid != "" {
				tracks = append(tracks, tid)
			}
		}
		if entry.Tracks != "" {
			listed, err := readTrackListFile(m.Resolve(entry.Tracks))
			if err != nil {
				return nil, fmt.Errorf("fold %s: %w", id, err)
			}
			tracks = append(tracks, listed...)
		}
		if len(tracks) == 0 {
			return nil, fmt.Errorf("fold %s has no tracks", id)
		}
		folds = append(folds, experiment.Fold{ID: id, Number: number, Kind: kind, TrackIDs: tracks})
	}
	return folds, nil
}

// DatasetInfo returns the dataset described by the manifest.
func (m *Manifest) DatasetInfo() experiment.Dataset {
	return experiment.Dataset{ID: m.Dataset.ID, Name: m.Dataset.Name, Description: m.Dataset.Description}
}

func readTrackListFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track list: %w", err)
	}
	defer file.Close()
	ids, err := ReadTrackList(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}
