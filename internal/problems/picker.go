package problems

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/codeduel/internal/model"
)

// ErrAllSolved means there is nothing left to pick.
var ErrAllSolved = errors.New("every problem is already solved")

// Picker chooses practice problems at random.
type Picker struct {
	rnd *rand.Rand
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker() *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewPickerWithSource returns a Picker over a fixed source.
func NewPickerWithSource(src rand.Source) *Picker {
	return &Picker{rnd: rand.New(src)}
}

// Random picks uniformly among the unsolved problems.
func (p *Picker) Random(list []model.Problem, solved map[model.ID]bool) (model.Problem, error) {
	unsolved := make([]model.Problem, 0, len(list))
	for _, pr := range list {
		if !solved[pr.ID] {
			unsolved = append(unsolved, pr)
		}
	}
	if len(unsolved) == 0 {
		return model.Problem{}, ErrAllSolved
	}
	return unsolved[p.rnd.Intn(len(unsolved))], nil
}
