package fsm

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/catalog"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/pricing"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/state"
)

// Errors returned for inputs that must not produce a reply.
var (
	ErrUnknownUnit    = errors.New("apartment is not in the catalog")
	ErrUnknownPercent = errors.New("down payment percent is not offered")
	ErrGalleryEmpty   = errors.New("photo gallery is empty")
	ErrNoScreen       = errors.New("session has no screen machine")
)

// Controller maps inbound input to the next Decision and mutates the session. Callers
// must hold session.Mu.
type Controller struct {
	catalog    *catalog.Store
	engine     *pricing.Engine
	photoCount int
}

func NewController(store *catalog.Store, engine *pricing.Engine, photoCount int) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("controller: catalog is nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("controller: pricing engine is nil")
	}
	if photoCount < 0 {
		photoCount = 0
	}
	return &Controller{catalog: store, engine: engine, photoCount: photoCount}, nil
}

// HandleText answers any plain message with the main screen. Selections survive.
func (c *Controller) HandleText(ctx context.Context, session *state.Session) (Decision, error) {
	if err := c.fire(ctx, session, EventShowMain); err != nil {
		return Decision{}, err
	}
	return Decision{Kind: ShowIntro}, nil
}

// HandleAction applies a parsed button press. A non-nil error means no reply is sent
// and the session is left as it was.
func (c *Controller) HandleAction(ctx context.Context, session *state.Session, act action.Action) (Decision, error) {
	switch act.Kind {
	case action.KindGetPrice, action.KindBackToApartments:
		return c.showApartments(ctx, session)

	case action.KindSelectApartment:
		unit, ok := c.catalog.FindApartment(act.Value)
		if !ok {
			return Decision{}, fmt.Errorf("%w: %s", ErrUnknownUnit, act.Value)
		}
		if err := c.fire(ctx, session, EventSelectApartment); err != nil {
			return Decision{}, err
		}
		session.SelectArea(unit.Area)
		return Decision{Kind: ShowDownPaymentOptions, Unit: unit, Total: c.engine.TotalPrice(unit.Area)}, nil

	case action.KindSelectDownPayment:
		if !c.catalog.HasPercent(act.Value) {
			return Decision{}, fmt.Errorf("%w: %s", ErrUnknownPercent, act.Value)
		}
		err := c.fire(ctx, session, EventSelectDownPayment)
		if canceledBy(err, ErrNoApartmentSelected) {
			log.Printf("[HandleAction] Conversation %d chose a down payment before an apartment, showing apartments", session.ConversationID)
			return c.showApartments(ctx, session)
		}
		if err != nil {
			return Decision{}, err
		}
		session.SelectPercent(act.Value)
		return c.planDecision(session, ShowCalculationResult)

	case action.KindPaymentSchedule:
		err := c.fire(ctx, session, EventShowSchedule)
		if canceledBy(err, ErrNoApartmentSelected) || canceledBy(err, ErrNoDownPaymentSelected) {
			log.Printf("[HandleAction] Conversation %d asked for a schedule without selections, showing apartments", session.ConversationID)
			return c.showApartments(ctx, session)
		}
		if err != nil {
			return Decision{}, err
		}
		return c.planDecision(session, ShowPaymentSchedule)

	case action.KindBackToMain:
		return c.showMain(ctx, session, Decision{Kind: ShowIntro})

	case action.KindLocation:
		return c.showMain(ctx, session, Decision{Kind: ShowVenue})

	case action.KindShowVideo:
		return c.showMain(ctx, session, Decision{Kind: ShowVideo})

	case action.KindShowPhoto:
		if c.photoCount == 0 {
			return Decision{}, ErrGalleryEmpty
		}
		if err := c.fire(ctx, session, EventShowMain); err != nil {
			return Decision{}, err
		}
		index := session.NextGalleryIndex(c.photoCount)
		return Decision{Kind: ShowNextGalleryPhoto, GalleryIndex: index}, nil

	default:
		return Decision{}, fmt.Errorf("%w: kind %v", action.ErrUnknownAction, act.Kind)
	}
}

func (c *Controller) showApartments(ctx context.Context, session *state.Session) (Decision, error) {
	if err := c.fire(ctx, session, EventShowApartments); err != nil {
		return Decision{}, err
	}
	return Decision{Kind: ShowApartmentList}, nil
}

func (c *Controller) showMain(ctx context.Context, session *state.Session, d Decision) (Decision, error) {
	if err := c.fire(ctx, session, EventShowMain); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (c *Controller) planDecision(session *state.Session, kind DecisionKind) (Decision, error) {
	area := session.SelectedArea.Decimal
	percent := session.SelectedPercent.Decimal
	unit, ok := c.catalog.FindApartment(area)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", ErrUnknownUnit, area)
	}
	plan, err := c.engine.Plan(area, percent)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to compute payment plan: %w", err)
	}
	return Decision{Kind: kind, Unit: unit, Total: plan.TotalPrice, Percent: percent, Plan: plan}, nil
}

// fire triggers event on the session's screen machine. Staying on the same screen is
// not an error.
func (c *Controller) fire(ctx context.Context, session *state.Session, event string) error {
	if session.Screen == nil {
		return ErrNoScreen
	}
	err := session.Screen.Event(ctx, event, session)
	if err == nil || isNoTransitionError(err) {
		return nil
	}
	return fmt.Errorf("screen event %s from %s: %w", event, session.Screen.Current(), err)
}
