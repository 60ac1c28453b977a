package fsm

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/bot/fakeadapter"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/ports/botport"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// kindRenderer puts the decision kind into the text so tests can follow the screens.
type kindRenderer struct{}

func (kindRenderer) Render(chatID int64, d Decision) botport.Payload {
	text := d.Kind.String()
	if d.Kind == ShowCalculationResult {
		text = fmt.Sprintf("%s down=%s", text, d.Plan.DownPayment.StringFixed(2))
	}
	return botport.Payload{ChatID: chatID, Text: text}
}

func TestHandleEventPriceFlow(t *testing.T) {
	h, adapter := newTestHandler(t, 0)

	for i, token := range []string{"getprice", "apart_45", "pay_70"} {
		h.HandleEvent(context.Background(), press(7, token, fmt.Sprintf("cb%d", i)))
	}

	sent := adapter.Sent(7)
	if len(sent) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(sent))
	}
	if sent[2].Text != "calculation_result down=31500.00" {
		t.Fatalf("unexpected last reply %q", sent[2].Text)
	}
	if adapter.CountOp("answer_callback") != 3 {
		t.Fatalf("every press must be acknowledged, got %d", adapter.CountOp("answer_callback"))
	}
}

func TestHandleEventUnknownTokenSendsNothing(t *testing.T) {
	h, adapter := newTestHandler(t, 0)

	h.HandleEvent(context.Background(), press(7, "doSomethingElse", "cb1"))
	h.HandleEvent(context.Background(), press(7, "apart_abc", "cb2"))
	h.HandleEvent(context.Background(), press(7, "pay_-10", "cb3"))

	if adapter.CountOp("send") != 0 {
		t.Fatalf("expected no replies, got %d", adapter.CountOp("send"))
	}
	if adapter.CountOp("answer_callback") != 3 {
		t.Fatalf("presses must still be acknowledged, got %d", adapter.CountOp("answer_callback"))
	}
	if h.store.Len() != 0 {
		t.Fatalf("invalid tokens must not create sessions")
	}
}

func TestHandleEventUnknownUnitKeepsState(t *testing.T) {
	h, adapter := newTestHandler(t, 0)
	h.HandleEvent(context.Background(), press(7, "apart_45", "cb1"))

	h.HandleEvent(context.Background(), press(7, "apart_99", "cb2"))

	if adapter.CountOp("send") != 1 {
		t.Fatalf("expected only the first reply, got %d", adapter.CountOp("send"))
	}
	session, _ := h.store.Lookup(7)
	if session.CurrentScreen() != StateDownPaymentOptions || !session.SelectedArea.Decimal.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("session changed: screen=%s area=%v", session.CurrentScreen(), session.SelectedArea)
	}
}

func TestHandleEventTextShowsIntro(t *testing.T) {
	h, adapter := newTestHandler(t, 0)

	h.HandleEvent(context.Background(), action.Event{ConversationID: 3, Kind: action.EventText, Text: "Сколько стоит?"})

	call := adapter.LastCall("send")
	if call == nil || call.Payload.Text != "intro" || call.ChatID != 3 {
		t.Fatalf("expected intro reply, got %+v", call)
	}
	if adapter.CountOp("answer_callback") != 0 {
		t.Fatalf("text messages have no callback to answer")
	}
}

func TestHandleEventSurvivesDeliveryFailure(t *testing.T) {
	h, adapter := newTestHandler(t, 0)
	adapter.Fail("send", fakeadapter.RateLimited("send", 0))

	h.HandleEvent(context.Background(), press(7, "getprice", "cb1"))
	h.HandleEvent(context.Background(), press(7, "apart_45", "cb2"))

	sent := adapter.Sent(7)
	if len(sent) != 1 || sent[0].Text != "down_payment_options" {
		t.Fatalf("expected the second reply to go through, got %+v", sent)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	h, adapter := newTestHandler(t, 0)

	flows := map[int64][]string{
		1: {"getprice", "apart_45", "pay_70"},
		2: {"getprice", "apart_62.5", "pay_50"},
	}
	var wg sync.WaitGroup
	for chatID, tokens := range flows {
		wg.Add(1)
		go func(chatID int64, tokens []string) {
			defer wg.Done()
			for i, tok := range tokens {
				h.HandleEvent(context.Background(), press(chatID, tok, fmt.Sprintf("%d-%d", chatID, i)))
			}
		}(chatID, tokens)
	}
	wg.Wait()

	if got := adapter.Sent(1)[2].Text; got != "calculation_result down=31500.00" {
		t.Fatalf("conversation 1 got %q", got)
	}
	if got := adapter.Sent(2)[2].Text; got != "calculation_result down=31250.00" {
		t.Fatalf("conversation 2 got %q", got)
	}
	s2, _ := h.store.Lookup(2)
	if !s2.SelectedArea.Decimal.Equal(decimal.RequireFromString("62.5")) || !s2.SelectedPercent.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("conversation 2 selections leaked: %+v", s2)
	}
}

func TestNormalize(t *testing.T) {
	text := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 5},
		From: &tgbotapi.User{FirstName: "Ani", LastName: "S"},
		Text: "привет",
	}}
	ev, ok := Normalize(text)
	if !ok || ev.Kind != action.EventText || ev.ConversationID != 5 || ev.UserName != "Ani S" {
		t.Fatalf("unexpected text event %+v", ev)
	}

	cb := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "q1",
		Data:    "apart_45",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 6}},
	}}
	ev, ok = Normalize(cb)
	if !ok || ev.Kind != action.EventButtonPress || ev.Token != "apart_45" || ev.CallbackID != "q1" || ev.ConversationID != 6 {
		t.Fatalf("unexpected callback event %+v", ev)
	}

	blank := tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 8}, Text: "  "}}
	if ev, ok = Normalize(blank); !ok || ev.Kind != action.EventText || ev.ConversationID != 8 {
		t.Fatalf("blank text must still reach the controller, got %+v ok=%v", ev, ok)
	}

	for name, u := range map[string]tgbotapi.Update{
		"empty":           {},
		"sticker":         {Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Sticker: &tgbotapi.Sticker{FileID: "s"}}},
		"callback no msg": {CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", Data: "getprice"}},
	} {
		if _, ok := Normalize(u); ok {
			t.Fatalf("%s: expected update to be ignored", name)
		}
	}
}

func newTestHandler(t *testing.T, photos int) (*Handler, *fakeadapter.FakeAdapter) {
	t.Helper()
	env := newTestEnv(t, photos)
	adapter := &fakeadapter.FakeAdapter{NextMessageID: 1}
	h, err := NewHandler(env.store, env.controller, kindRenderer{}, adapter)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h, adapter
}

func press(chatID int64, token, callbackID string) action.Event {
	return action.Event{
		ConversationID: chatID,
		Kind:           action.EventButtonPress,
		Token:          token,
		CallbackID:     callbackID,
	}
}
