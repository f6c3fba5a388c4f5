package passenger

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// Labelled is a passenger row with its known outcome, as exported for model evaluation
type Labelled struct {
	Sex      Sex     `csv:"sex"`
	Pclass   int     `csv:"pclass"`
	Age      float64 `csv:"age"`
	Fare     float64 `csv:"fare"`
	Survived int     `csv:"survived"`
}

// Profile returns the row's features as a Profile
func (l Labelled) Profile() Profile {
	return Profile{Sex: l.Sex, Pclass: Class(l.Pclass), Age: l.Age, Fare: l.Fare}
}

// LoadLabelled decodes a CSV with header sex,pclass,age,fare,survived.
// Rows with out-of-domain features are rejected.
func LoadLabelled(r io.Reader) ([]Labelled, error) {
	var rows []Labelled
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode passengers: %w", err)
	}

	for i, row := range rows {
		if err := Validate(row.Profile()); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.Survived != 0 && row.Survived != 1 {
			return nil, fmt.Errorf("row %d: survived must be 0 or 1, got %d", i+1, row.Survived)
		}
	}

	return rows, nil
}

// LoadLabelledFile reads a labelled passenger CSV from disk
func LoadLabelledFile(path string) ([]Labelled, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return LoadLabelled(f)
}
