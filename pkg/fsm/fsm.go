package fsm

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/ports/botport"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/state"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Renderer turns a Decision into an outbound payload for chatID.
type Renderer interface {
	Render(chatID int64, d Decision) botport.Payload
}

// Handler runs one inbound event through the controller, the renderer and the bot port.
type Handler struct {
	store      *state.Store
	controller *Controller
	renderer   Renderer
	botPort    botport.BotPort
}

func NewHandler(store *state.Store, controller *Controller, renderer Renderer, botPort botport.BotPort) (*Handler, error) {
	if store == nil || controller == nil || renderer == nil || botPort == nil {
		return nil, fmt.Errorf("fsm: handler dependencies must not be nil")
	}
	return &Handler{
		store:      store,
		controller: controller,
		renderer:   renderer,
		botPort:    botPort,
	}, nil
}

// Normalize converts a Telegram update into an Event. Any text, even blank, counts as a
// text message; messages without text (stickers, photos) and other updates are ignored.
func Normalize(update tgbotapi.Update) (action.Event, bool) {
	if update.Message != nil {
		msg := update.Message
		if msg.Chat == nil {
			log.Printf("Warning: Received message with nil Chat field")
			return action.Event{}, false
		}
		if msg.Text == "" {
			return action.Event{}, false
		}
		return action.Event{
			ConversationID: msg.Chat.ID,
			Kind:           action.EventText,
			Text:           msg.Text,
			UserName:       userName(msg.From),
		}, true
	}

	if query := update.CallbackQuery; query != nil {
		if query.Message == nil || query.Message.Chat == nil {
			log.Printf("Warning: Received callback query with nil Message or Chat field")
			return action.Event{}, false
		}
		return action.Event{
			ConversationID: query.Message.Chat.ID,
			Kind:           action.EventButtonPress,
			Token:          query.Data,
			CallbackID:     query.ID,
			UserName:       userName(query.From),
		}, true
	}

	return action.Event{}, false
}

func userName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	return name
}

// HandleEvent never returns an error: every failure is logged here so that one broken
// conversation cannot stop the update loop.
func (h *Handler) HandleEvent(ctx context.Context, event action.Event) {
	var act action.Action
	if event.Kind == action.EventButtonPress {
		if event.CallbackID != "" {
			if err := h.botPort.AnswerCallback(ctx, event.CallbackID, ""); err != nil {
				log.Printf("[HandleEvent] Error answering callback %s for conversation %d: %v", event.CallbackID, event.ConversationID, err)
			}
		}

		parsed, err := action.Parse(event.Token)
		if err != nil {
			if errors.Is(err, action.ErrMalformedAction) {
				log.Printf("[HandleEvent] Malformed action from conversation %d: %v", event.ConversationID, err)
			} else {
				log.Printf("[HandleEvent] Ignoring action from conversation %d: %v", event.ConversationID, err)
			}
			return
		}
		act = parsed
	}

	session := h.store.GetOrCreateSession(event.ConversationID, event.UserName)

	session.Mu.Lock()
	defer session.Mu.Unlock()

	var (
		decision Decision
		err      error
	)
	if event.Kind == action.EventText {
		log.Printf("[HandleEvent] Received text in conversation %d, showing main menu", event.ConversationID)
		decision, err = h.controller.HandleText(ctx, session)
	} else {
		log.Printf("[HandleEvent] Action %s in conversation %d (screen %s)", act.Kind, event.ConversationID, session.CurrentScreen())
		decision, err = h.controller.HandleAction(ctx, session, act)
	}
	if err != nil {
		log.Printf("[HandleEvent] No reply for conversation %d: %v", event.ConversationID, err)
		return
	}

	payload := h.renderer.Render(event.ConversationID, decision)
	if _, err := h.botPort.Send(ctx, payload); err != nil {
		var be *botport.BotError
		if errors.As(err, &be) && be.RetryAfter > 0 {
			log.Printf("[HandleEvent] Delivery of %s to conversation %d rejected (%s, retry after %v): %v", decision.Kind, event.ConversationID, be.Code, be.RetryAfter, err)
			return
		}
		log.Printf("[HandleEvent] Delivery of %s to conversation %d failed (%s): %v", decision.Kind, event.ConversationID, botport.CodeOf(err), err)
		return
	}
	log.Printf("[HandleEvent] Sent %s to conversation %d", decision.Kind, event.ConversationID)
}
