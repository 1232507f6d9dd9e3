package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mireval/internal/experiment"
)

// LoadLabelGroundTruth reads a classification ground-truth file.
func LoadLabelGroundTruth(path, field string) ([]experiment.GroundTruth, error) {
	lines, err := readLabelFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]experiment.GroundTruth, 0, len(lines))
	for _, l := range lines {
		out = append(out, experiment.GroundTruth{
			TrackID: l.TrackID,
			Fields:  experiment.Fields{field: experiment.LabelValue(l.Label)},
		})
	}
	return out, nil
}

// LoadOnsetGroundTruth reads one onset file per track from dir. When
// classesPath is set, its "track<TAB>class" lines populate classField.
func LoadOnsetGroundTruth(dir, field, classesPath, classField string) ([]experiment.GroundTruth, error) {
	sequences, err := readOnsetDir(dir)
	if err != nil {
		return nil, err
	}
	classes := map[string]string{}
	if classesPath != "" {
		lines, err := readLabelFile(classesPath)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			classes[l.TrackID] = l.Label
		}
	}

	ids := make([]string, 0, len(sequences))
	for id := range sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]experiment.GroundTruth, 0, len(ids))
	for _, id := range ids {
		fields := experiment.Fields{field: experiment.SequenceValue(sequences[id]...)}
		if class, ok := classes[id]; ok {
			fields[classField] = experiment.LabelValue(class)
		}
		out = append(out, experiment.GroundTruth{TrackID: id, Fields: fields})
	}
	return out, nil
}

func readLabelFile(path string) ([]LabelLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer file.Close()
	lines, err := ReadLabels(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// readOnsetDir maps track IDs to the annotator columns of each file in dir.
func readOnsetDir(dir string) (map[string][][]float64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read onset directory: %w", err)
	}
	out := make(map[string][][]float64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		seqs, err := readOnsetFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		id := TrackID(entry.Name())
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("%s: track %s appears in more than one file", dir, id)
		}
		out[id] = seqs
	}
	return out, nil
}

func readOnsetFile(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open onset file: %w", err)
	}
	defer file.Close()
	seqs, err := ReadOnsets(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(seqs) == 0 {
		seqs = [][]float64{{}}
	}
	return seqs, nil
}
