package fsm

import (
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/catalog"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/pricing"

	"github.com/shopspring/decimal"
)

type DecisionKind int

const (
	ShowIntro DecisionKind = iota + 1
	ShowApartmentList
	ShowDownPaymentOptions
	ShowCalculationResult
	ShowPaymentSchedule
	ShowVenue
	ShowVideo
	ShowNextGalleryPhoto
)

func (k DecisionKind) String() string {
	switch k {
	case ShowIntro:
		return "intro"
	case ShowApartmentList:
		return "apartment_list"
	case ShowDownPaymentOptions:
		return "down_payment_options"
	case ShowCalculationResult:
		return "calculation_result"
	case ShowPaymentSchedule:
		return "payment_schedule"
	case ShowVenue:
		return "venue"
	case ShowVideo:
		return "video"
	case ShowNextGalleryPhoto:
		return "gallery_photo"
	default:
		return "unknown"
	}
}

// Decision is what the controller wants shown next. Only the fields relevant to Kind are set.
type Decision struct {
	Kind         DecisionKind
	Unit         catalog.ApartmentUnit
	Total        decimal.Decimal
	Percent      decimal.Decimal
	Plan         pricing.PaymentPlan
	GalleryIndex int
}
