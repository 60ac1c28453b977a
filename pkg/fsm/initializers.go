package fsm

import (
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/analytics"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/state"

	"github.com/looplab/fsm"
)

type fsmCreatorImpl struct {
	tracker analytics.Tracker
}

func (fc *fsmCreatorImpl) NewScreenFSM() *fsm.FSM {
	return NewScreenFSM(StateStart, fc.tracker)
}

// NewFSMCreator returns a creator whose machines report entered screens to tracker.
// A nil tracker disables reporting.
func NewFSMCreator(tracker analytics.Tracker) state.FSMCreator {
	return &fsmCreatorImpl{tracker: tracker}
}
