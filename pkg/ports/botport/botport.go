package botport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Package botport provides the outbound interface between the conversation controller and chat adapters.

// Normalized BotError codes shared by adapters.
const (
	CodeRateLimited        = "rate_limited"
	CodeBadRequest         = "bad_request"
	CodeForbidden          = "forbidden"
	CodeMessageNotModified = "message_not_modified"
	CodeBadPayload         = "bad_payload"
	CodeContextCanceled    = "context_canceled"
	CodeContextDeadline    = "context_deadline"
	CodeContextError       = "context_error"
	CodeUnknown            = "unknown"
)

// MediaKind selects how an adapter delivers Media.
type MediaKind int

const (
	MediaPhoto MediaKind = iota + 1
	MediaVideo
	MediaVenue
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaVenue:
		return "venue"
	default:
		return "none"
	}
}

// Button is one inline keyboard button carrying an action token.
type Button struct {
	Label string
	Token string
}

// Media is an optional attachment. Ref is a local file path for photos and a URL for
// videos; venues use the coordinate fields.
type Media struct {
	Kind      MediaKind
	Ref       string
	Title     string
	Address   string
	Latitude  float64
	Longitude float64
}

// Payload is one outbound reply.
type Payload struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
	Media   *Media
}

// Tokens returns every action token of the payload's keyboard in row order.
func (p Payload) Tokens() []string {
	var out []string
	for _, row := range p.Buttons {
		for _, b := range row {
			out = append(out, b.Token)
		}
	}
	return out
}

// FindButton returns the button carrying token.
func (p Payload) FindButton(token string) (Button, bool) {
	for _, row := range p.Buttons {
		for _, b := range row {
			if b.Token == token {
				return b, true
			}
		}
	}
	return Button{}, false
}

// BotMessage captures adapter-agnostic identifiers for previously sent messages.
type BotMessage struct {
	ChatID    int64
	MessageID int
	Transport string
	Payload   string
	Meta      map[string]string
}

// BotError wraps adapter failures with retry hints and normalized codes.
type BotError struct {
	Op         string
	Code       string
	RetryAfter time.Duration
	Wrapped    error
}

func (e *BotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap exposes the underlying adapter error for errors.Is/As.
func (e *BotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// NewBotError builds a BotError with the provided operation/code, preserving the wrapped error.
func NewBotError(op, code string, err error) *BotError {
	return &BotError{
		Op:      op,
		Code:    code,
		Wrapped: err,
	}
}

// IsCode determines whether err represents a BotError with the provided code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf returns the BotError code of err, or "" when err is not a BotError.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var be *BotError
	if errors.As(err, &be) && be != nil {
		return be.Code
	}
	return ""
}

// BotPort abstracts outbound operations for adapters (Telegram, fake, etc.).
type BotPort interface {
	Send(ctx context.Context, payload Payload) (BotMessage, error)
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}
