package crm

import (
	"errors"
	"fmt"
)

// ErrUnknownStage is returned when a stage code is not part of the closed vocabulary.
var ErrUnknownStage = errors.New("unknown stage code")

// Stage is one of the ten fixed pipeline positions, identified by its stable code.
// The nine working stages form a strict linear path from Ice to Activated;
// Null is a parked state that never progresses.
type Stage string

const (
	StageIce         Stage = "C0"
	StageTouched     Stage = "C1"
	StageAware       Stage = "C2"
	StageInterested  Stage = "W1"
	StageDemoPlanned Stage = "W2"
	StageDemoDone    Stage = "W3"
	StageCommitted   Stage = "H1"
	StageCustomer    Stage = "H2"
	StageActivated   Stage = "A1"
	StageNull        Stage = "N0"
)

// Stages lists every stage in pipeline order, Null last.
var Stages = []Stage{
	StageIce,
	StageTouched,
	StageAware,
	StageInterested,
	StageDemoPlanned,
	StageDemoDone,
	StageCommitted,
	StageCustomer,
	StageActivated,
	StageNull,
}

var stageLabels = map[Stage]string{
	StageIce:         "Ice",
	StageTouched:     "Touched",
	StageAware:       "Aware",
	StageInterested:  "Interested",
	StageDemoPlanned: "Demo Planned",
	StageDemoDone:    "Demo Done",
	StageCommitted:   "Committed",
	StageCustomer:    "Customer",
	StageActivated:   "Activated",
	StageNull:        "Null",
}

// stageOrders gives the position along the path. Null sits outside the path at -1.
var stageOrders = map[Stage]int{
	StageIce:         0,
	StageTouched:     1,
	StageAware:       2,
	StageInterested:  3,
	StageDemoPlanned: 4,
	StageDemoDone:    5,
	StageCommitted:   6,
	StageCustomer:    7,
	StageActivated:   8,
	StageNull:        -1,
}

// stageNext maps each stage to its immediate successor. Activated and Null are
// absent: neither has a successor.
var stageNext = map[Stage]Stage{
	StageIce:         StageTouched,
	StageTouched:     StageAware,
	StageAware:       StageInterested,
	StageInterested:  StageDemoPlanned,
	StageDemoPlanned: StageDemoDone,
	StageDemoDone:    StageCommitted,
	StageCommitted:   StageCustomer,
	StageCustomer:    StageActivated,
}

// ParseStage maps a stage code to its Stage. Unknown codes are rejected,
// never defaulted.
func ParseStage(code string) (Stage, error) {
	s := Stage(code)
	if _, ok := stageLabels[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, code)
	}
	return s, nil
}

// Label returns the human-readable stage name.
func (s Stage) Label() string {
	return stageLabels[s]
}

// Order returns the stage's position along the pipeline path (-1 for Null).
func (s Stage) Order() int {
	return stageOrders[s]
}

// Next returns the immediate successor stage. The second return is false for
// Activated (terminal) and Null (non-progressing).
func (s Stage) Next() (Stage, bool) {
	next, ok := stageNext[s]
	return next, ok
}

func (s Stage) String() string {
	return string(s)
}
