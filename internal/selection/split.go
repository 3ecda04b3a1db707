package selection

import (
	"errors"
	"fmt"
)

// AlwaysTrain marks rows that are never part of a validation fold.
const AlwaysTrain = -1

var ErrNoFolds = errors.New("selection: split has no validation fold")

// PredefinedSplit assigns each row of the stacked train+valid matrix to a
// fold. Rows marked AlwaysTrain are used for fitting in every fold.
type PredefinedSplit []int

// NewPredefinedSplit marks the first nTrain rows as training rows and the
// following nValid rows as validation fold 0.
func NewPredefinedSplit(nTrain, nValid int) PredefinedSplit {
	split := make(PredefinedSplit, 0, nTrain+nValid)
	for i := 0; i < nTrain; i++ {
		split = append(split, AlwaysTrain)
	}
	for i := 0; i < nValid; i++ {
		split = append(split, 0)
	}
	return split
}

type Fold struct {
	Train []int
	Test  []int
}

// Folds returns one train/test partition per distinct fold id, in ascending
// fold order.
func (p PredefinedSplit) Folds() ([]Fold, error) {
	maxFold := AlwaysTrain
	for i, f := range p {
		if f < AlwaysTrain {
			return nil, fmt.Errorf("row %d has fold %d", i, f)
		}
		maxFold = max(maxFold, f)
	}
	if maxFold == AlwaysTrain {
		return nil, ErrNoFolds
	}
	var folds []Fold
	for id := 0; id <= maxFold; id++ {
		var fold Fold
		for i, f := range p {
			if f == id {
				fold.Test = append(fold.Test, i)
			} else {
				fold.Train = append(fold.Train, i)
			}
		}
		if len(fold.Test) > 0 {
			folds = append(folds, fold)
		}
	}
	return folds, nil
}
