package experiment

import "strings"

// Family identifies the scoring family a task belongs to.
type Family string

const (
	FamilyClassification Family = "classification"
	FamilyOnset          Family = "onset"
)

// ParseFamily normalizes a configured family name.
func ParseFamily(value string) (Family, bool) {
	switch Family(strings.ToLower(strings.TrimSpace(value))) {
	case FamilyClassification:
		return FamilyClassification, true
	case FamilyOnset:
		return FamilyOnset, true
	default:
		return "", false
	}
}

// Default subject fields per family.
const (
	FieldGenre      = "genre"
	FieldOnsets     = "onsets"
	FieldOnsetClass = "class"
)

// Task identifies what is being predicted.
type Task struct {
	ID           int
	Name         string
	Description  string
	SubjectField string
	Family       Family
}

// Dataset describes the collection the folds are drawn from.
type Dataset struct {
	ID          int
	Name        string
	Description string
}

// SetKind distinguishes test partitions from training partitions.
type SetKind string

const (
	SetTest     SetKind = "test"
	SetTraining SetKind = "training"
)

// Fold is one partition of a cross-validated experiment. TrackIDs is the
// canonical list of tracks a submission is expected to cover.
type Fold struct {
	ID       string
	Number   int
	Kind     SetKind
	TrackIDs []string
}

// Size is the declared number of tracks in the fold.
func (f Fold) Size() int {
	return len(f.TrackIDs)
}
