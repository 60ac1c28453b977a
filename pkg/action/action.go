// Package action turns inbound callback payloads into typed actions at the transport
// boundary, so malformed payloads never reach the conversation controller.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindGetPrice
	KindBackToApartments
	KindSelectApartment
	KindSelectDownPayment
	KindPaymentSchedule
	KindBackToMain
	KindLocation
	KindShowVideo
	KindShowPhoto
)

const (
	TokenGetPrice         = "getprice"
	TokenBackToApartments = "backToApartments"
	TokenPaymentSchedule  = "paymentSchedule"
	TokenBackToMain       = "backToMain"
	TokenLocation         = "location"
	TokenShowVideo        = "showvideo"
	TokenShowPhoto        = "showphoto"

	PrefixApartment   = "apart_"
	PrefixDownPayment = "pay_"
)

var (
	ErrMalformedAction = errors.New("malformed action token")
	ErrUnknownAction   = errors.New("unknown action token")
)

var exactTokens = map[string]Kind{
	TokenGetPrice:         KindGetPrice,
	TokenBackToApartments: KindBackToApartments,
	TokenPaymentSchedule:  KindPaymentSchedule,
	TokenBackToMain:       KindBackToMain,
	TokenLocation:         KindLocation,
	TokenShowVideo:        KindShowVideo,
	TokenShowPhoto:        KindShowPhoto,
}

// Action is a parsed button press. Value is set for KindSelectApartment (area in m2)
// and KindSelectDownPayment (percent).
type Action struct {
	Kind  Kind
	Value decimal.Decimal
}

// Parse matches the numeric prefixes first and the exact tokens second.
func Parse(token string) (Action, error) {
	if rest, ok := strings.CutPrefix(token, PrefixApartment); ok {
		v, err := parseValue(token, rest)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: KindSelectApartment, Value: v}, nil
	}
	if rest, ok := strings.CutPrefix(token, PrefixDownPayment); ok {
		v, err := parseValue(token, rest)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: KindSelectDownPayment, Value: v}, nil
	}
	if kind, ok := exactTokens[token]; ok {
		return Action{Kind: kind}, nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

func parseValue(token, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: %v", ErrMalformedAction, token, err)
	}
	if !v.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: value must be positive", ErrMalformedAction, token)
	}
	return v, nil
}

func ApartToken(area decimal.Decimal) string {
	return PrefixApartment + area.String()
}

func PayToken(percent decimal.Decimal) string {
	return PrefixDownPayment + percent.String()
}

func (k Kind) String() string {
	switch k {
	case KindGetPrice:
		return "get_price"
	case KindBackToApartments:
		return "back_to_apartments"
	case KindSelectApartment:
		return "select_apartment"
	case KindSelectDownPayment:
		return "select_down_payment"
	case KindPaymentSchedule:
		return "payment_schedule"
	case KindBackToMain:
		return "back_to_main"
	case KindLocation:
		return "location"
	case KindShowVideo:
		return "show_video"
	case KindShowPhoto:
		return "show_photo"
	default:
		return "unknown"
	}
}
