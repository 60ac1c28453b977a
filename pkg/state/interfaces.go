package state

import "github.com/looplab/fsm"

type FSMCreator interface {
	NewScreenFSM() *fsm.FSM
}
