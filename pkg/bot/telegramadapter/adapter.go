package telegramadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/bot"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/ports/botport"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Package telegramadapter implements botport.BotPort using the Telegram client.

// DefaultSendRate stays under Telegram's global limit of 30 messages per second.
const DefaultSendRate = 25

// Logger defines the minimal logging interface used by the adapter.
type Logger interface {
	Printf(format string, args ...any)
}

type telegramClient interface {
	SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	SendPhoto(chatID int64, path string, caption string, markup interface{}) (tgbotapi.Message, error)
	SendVenue(chatID int64, title, address string, latitude, longitude float64, markup interface{}) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
}

// Adapter wraps a Telegram client and satisfies botport.BotPort.
type Adapter struct {
	client  telegramClient
	logger  Logger
	limiter *rate.Limiter
}

var _ telegramClient = (*bot.Client)(nil)
var _ botport.BotPort = (*Adapter)(nil)

// Option customizes an Adapter.
type Option func(*Adapter)

// WithSendRate limits outbound sends to perSecond with the given burst. A non-positive
// rate disables limiting.
func WithSendRate(perSecond float64, burst int) Option {
	return func(a *Adapter) {
		if perSecond <= 0 {
			a.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New constructs a Telegram adapter with the provided bot client and logger.
func New(client telegramClient, logger Logger, opts ...Option) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("telegramadapter: client is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	a := &Adapter{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(DefaultSendRate), DefaultSendRate),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Send delivers a payload: a venue pin, a photo with caption, or a text message.
// Video media is delivered as a text message carrying the link so Telegram renders a preview.
func (a *Adapter) Send(ctx context.Context, payload botport.Payload) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send", err)
	}
	markup := toInlineKeyboard(payload.Buttons)

	if payload.Media == nil {
		return a.sendText(ctx, payload.ChatID, payload.Text, markup)
	}

	media := payload.Media
	switch media.Kind {
	case botport.MediaPhoto:
		if media.Ref == "" {
			return botport.BotMessage{}, botport.NewBotError("send_photo", botport.CodeBadPayload, fmt.Errorf("photo path is empty"))
		}
		if err := a.wait(ctx, "send_photo"); err != nil {
			return botport.BotMessage{}, err
		}
		msg, err := a.client.SendPhoto(payload.ChatID, media.Ref, payload.Text, markupOrNil(markup))
		if err != nil {
			return botport.BotMessage{}, a.wrapAndLogError("send_photo", payload.ChatID, err)
		}
		bm := toBotMessage(msg, markup)
		a.log("send_photo", map[string]any{"chat_id": bm.ChatID, "message_id": bm.MessageID, "path": media.Ref})
		return bm, nil

	case botport.MediaVideo:
		if media.Ref == "" {
			return botport.BotMessage{}, botport.NewBotError("send_video", botport.CodeBadPayload, fmt.Errorf("video url is empty"))
		}
		text := payload.Text
		if !strings.Contains(text, media.Ref) {
			text = strings.TrimSpace(text + "\n" + media.Ref)
		}
		return a.sendText(ctx, payload.ChatID, text, markup)

	case botport.MediaVenue:
		if err := a.wait(ctx, "send_venue"); err != nil {
			return botport.BotMessage{}, err
		}
		venueMarkup := markup
		if payload.Text != "" {
			venueMarkup = nil
		}
		msg, err := a.client.SendVenue(payload.ChatID, media.Title, media.Address, media.Latitude, media.Longitude, markupOrNil(venueMarkup))
		if err != nil {
			return botport.BotMessage{}, a.wrapAndLogError("send_venue", payload.ChatID, err)
		}
		bm := toBotMessage(msg, venueMarkup)
		a.log("send_venue", map[string]any{"chat_id": bm.ChatID, "message_id": bm.MessageID})
		if payload.Text == "" {
			return bm, nil
		}
		return a.sendText(ctx, payload.ChatID, payload.Text, markup)

	default:
		return botport.BotMessage{}, botport.NewBotError("send", botport.CodeBadPayload, fmt.Errorf("unsupported media kind %d", media.Kind))
	}
}

// AnswerCallback acknowledges a callback query so the client stops its loading indicator.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError("answer_callback", err)
	}
	if err := a.client.AnswerCallback(callbackID, text); err != nil {
		return a.wrapAndLogError("answer_callback", 0, err)
	}
	a.log("answer_callback", map[string]any{"callback_id": callbackID})
	return nil
}

func (a *Adapter) sendText(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (botport.BotMessage, error) {
	if strings.TrimSpace(text) == "" {
		return botport.BotMessage{}, botport.NewBotError("send_message", botport.CodeBadPayload, fmt.Errorf("message text is empty"))
	}
	if err := a.wait(ctx, "send_message"); err != nil {
		return botport.BotMessage{}, err
	}
	msg, err := a.client.SendMessage(chatID, text, markupOrNil(markup))
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("send_message", chatID, err)
	}
	bm := toBotMessage(msg, markup)
	a.log("send_message", map[string]any{"chat_id": bm.ChatID, "message_id": bm.MessageID})
	return bm, nil
}

func (a *Adapter) wait(ctx context.Context, op string) error {
	if a.limiter == nil {
		return nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return wrapContextError(op, ctxErr)
		}
		return &botport.BotError{Op: op, Code: botport.CodeRateLimited, Wrapped: err}
	}
	return nil
}

func (a *Adapter) wrapAndLogError(op string, chatID int64, err error) error {
	wrapped := wrapTelegramError(op, err)
	a.log(op, map[string]any{
		"chat_id": chatID,
		"code":    botport.CodeOf(wrapped),
		"error":   err.Error(),
	})
	return wrapped
}

func (a *Adapter) log(op string, attrs map[string]any) {
	if a.logger == nil {
		return
	}
	a.logger.Printf("botport op=%s attrs=%v", op, attrs)
}

func toInlineKeyboard(rows [][]botport.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	if len(keyboard.InlineKeyboard) == 0 {
		return nil
	}
	return &keyboard
}

// markupOrNil keeps a typed nil pointer from reaching the client as a non-nil interface.
func markupOrNil(markup *tgbotapi.InlineKeyboardMarkup) interface{} {
	if markup == nil {
		return nil
	}
	return *markup
}

func toBotMessage(msg tgbotapi.Message, markup *tgbotapi.InlineKeyboardMarkup) botport.BotMessage {
	payload := msg.Text
	if payload == "" {
		payload = msg.Caption
	}
	return botport.BotMessage{
		ChatID:    chatIDFromMessage(msg),
		MessageID: msg.MessageID,
		Transport: "telegram",
		Payload:   payload,
		Meta:      metaFromMarkup(markup),
	}
}

func metaFromMarkup(markup *tgbotapi.InlineKeyboardMarkup) map[string]string {
	if markup == nil {
		return nil
	}
	meta := map[string]string{
		"markup_type": fmt.Sprintf("%T", *markup),
	}
	if raw, err := json.Marshal(markup); err == nil {
		meta["raw_markup"] = string(raw)
	}
	return meta
}

func chatIDFromMessage(msg tgbotapi.Message) int64 {
	if msg.Chat != nil {
		return msg.Chat.ID
	}
	return 0
}

func wrapContextError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &botport.BotError{Op: op, Code: botport.CodeContextCanceled, Wrapped: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &botport.BotError{Op: op, Code: botport.CodeContextDeadline, Wrapped: err}
	}
	return &botport.BotError{Op: op, Code: botport.CodeContextError, Wrapped: err}
}

func wrapTelegramError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(op, err)
	}
	code, retry := classifyTelegramError(err)
	return &botport.BotError{
		Op:         op,
		Code:       code,
		RetryAfter: retry,
		Wrapped:    err,
	}
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry after (\d+)`)

func classifyTelegramError(err error) (string, time.Duration) {
	if err == nil {
		return botport.CodeUnknown, 0
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return botport.CodeRateLimited, time.Duration(apiErr.RetryAfter) * time.Second
		case http.StatusForbidden:
			return botport.CodeForbidden, 0
		case http.StatusBadRequest:
			if strings.Contains(strings.ToLower(apiErr.Message), "message is not modified") {
				return botport.CodeMessageNotModified, 0
			}
			return botport.CodeBadRequest, 0
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message is not modified"):
		return botport.CodeMessageNotModified, 0
	case strings.Contains(msg, "too many requests"):
		return botport.CodeRateLimited, extractRetryAfter(msg)
	case strings.Contains(msg, "bad request"):
		return botport.CodeBadRequest, 0
	case strings.Contains(msg, "forbidden"):
		return botport.CodeForbidden, 0
	default:
		return botport.CodeUnknown, 0
	}
}

func extractRetryAfter(msg string) time.Duration {
	matches := retryAfterRegex.FindStringSubmatch(msg)
	if len(matches) != 2 {
		return 0
	}
	seconds, err := time.ParseDuration(matches[1] + "s")
	if err != nil {
		return 0
	}
	return seconds
}
