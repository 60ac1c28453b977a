package fsm

import (
	"context"
	"errors"
	"log"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/analytics"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/state"

	"github.com/looplab/fsm"
)

var (
	ErrNoApartmentSelected   = errors.New("no apartment selected")
	ErrNoDownPaymentSelected = errors.New("no down payment selected")
)

// NewScreenFSM builds the per-conversation screen machine. Funnel screens may be entered
// from anywhere because users can press buttons of older messages; the before_ guards
// keep the calculator screens unreachable until the needed selections exist.
//
// Every event expects the *state.Session as its first argument.
func NewScreenFSM(initialState string, tracker analytics.Tracker) *fsm.FSM {
	callbacks := fsm.Callbacks{
		"before_" + EventSelectDownPayment: requireApartment,
		"before_" + EventShowSchedule:      requireApartmentAndDownPayment,
	}
	if tracker != nil {
		callbacks["enter_state"] = func(ctx context.Context, e *fsm.Event) {
			session := sessionArg(e)
			if session == nil {
				return
			}
			tracker.Reach(ctx, session.ConversationID, e.Dst)
		}
	}

	events := fsm.Events{
		{Name: EventShowMain, Src: allScreens, Dst: StateMain},
		{Name: EventShowApartments, Src: allScreens, Dst: StateApartmentList},
		{Name: EventSelectApartment, Src: allScreens, Dst: StateDownPaymentOptions},
		{Name: EventSelectDownPayment, Src: allScreens, Dst: StateCalculationResult},
		{Name: EventShowSchedule, Src: allScreens, Dst: StatePaymentSchedule},
	}

	return fsm.NewFSM(initialState, events, callbacks)
}

func requireApartment(_ context.Context, e *fsm.Event) {
	session := sessionArg(e)
	if session == nil || !session.SelectedArea.Valid {
		e.Cancel(ErrNoApartmentSelected)
	}
}

func requireApartmentAndDownPayment(_ context.Context, e *fsm.Event) {
	session := sessionArg(e)
	if session == nil || !session.SelectedArea.Valid {
		e.Cancel(ErrNoApartmentSelected)
		return
	}
	if !session.SelectedPercent.Valid {
		e.Cancel(ErrNoDownPaymentSelected)
	}
}

func sessionArg(e *fsm.Event) *state.Session {
	if len(e.Args) < 1 {
		log.Printf("[sessionArg] FATAL: event %s fired without session argument", e.Event)
		return nil
	}
	session, ok := e.Args[0].(*state.Session)
	if !ok || session == nil {
		log.Printf("[sessionArg] FATAL: Failed to cast or nil Session arg for event %s", e.Event)
		return nil
	}
	return session
}
