package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
)

// TrackID canonicalizes a track reference to the base name without extension.
func TrackID(ref string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	base := path.Base(ref)
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// LabelLine is one parsed "track<TAB>label" entry.
type LabelLine struct {
	TrackID string
	Label   string
}

// ReadLabels parses a tab-delimited label file. Blank lines and lines
// starting with '#' are skipped.
func ReadLabels(r io.Reader) ([]LabelLine, error) {
	var out []LabelLine
	err := scanLines(r, func(lineNo int, line string) error {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: expected track<TAB>label", lineNo)
		}
		id := TrackID(parts[0])
		label := strings.TrimSpace(parts[1])
		if id == "" || label == "" {
			return fmt.Errorf("line %d: empty track or label", lineNo)
		}
		out = append(out, LabelLine{TrackID: id, Label: label})
		return nil
	})
	return out, err
}

// ReadTrackList parses one track reference per line.
func ReadTrackList(r io.Reader) ([]string, error) {
	var out []string
	err := scanLines(r, func(_ int, line string) error {
		if id := TrackID(strings.SplitN(line, "\t", 2)[0]); id != "" {
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

// ReadOnsets parses an onset file into one sequence per column. Columns may
// be ragged; "NaN" or missing cells are skipped.
func ReadOnsets(r io.Reader) ([][]float64, error) {
	var columns [][]float64
	err := scanLines(r, func(lineNo int, line string) error {
		for i, cell := range strings.Fields(line) {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return fmt.Errorf("line %d column %d: %w", lineNo, i+1, err)
			}
			for len(columns) <= i {
				columns = append(columns, []float64{})
			}
			if math.IsNaN(v) {
				continue
			}
			columns[i] = append(columns[i], v)
		}
		return nil
	})
	return columns, err
}

func scanLines(r io.Reader, fn func(lineNo int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
