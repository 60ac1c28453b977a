package render

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/action"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/assets"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/catalog"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/fsm"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/ports/botport"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/pricing"
)

const dateLayout = "02.01.2006"

var scheduleTpl = template.Must(template.New("schedule").Parse(scheduleTemplate))

type Venue struct {
	Title     string
	Address   string
	Latitude  float64
	Longitude float64
}

// Options holds the static content the renderer needs. It is read once at startup.
type Options struct {
	Catalog  *catalog.Store
	Intro    string
	Gallery  *assets.Gallery
	VideoURL string
	Venue    Venue
	Currency string
}

type Renderer struct {
	opts Options
}

var _ fsm.Renderer = (*Renderer)(nil)

func New(opts Options) (*Renderer, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("render: catalog is nil")
	}
	if opts.Intro == "" {
		return nil, fmt.Errorf("render: intro text is empty")
	}
	if opts.Gallery == nil {
		opts.Gallery = assets.NewGallery()
	}
	return &Renderer{opts: opts}, nil
}

type menuOptions struct {
	omitLocation bool
	omitPhoto    bool
	omitVideo    bool
	photoLabel   string
}

func (r *Renderer) Render(chatID int64, d fsm.Decision) botport.Payload {
	payload := botport.Payload{ChatID: chatID}

	switch d.Kind {
	case fsm.ShowIntro:
		payload.Text = r.opts.Intro
		payload.Buttons = r.mainMenu(menuOptions{})

	case fsm.ShowApartmentList:
		payload.Text = textChooseApartment
		payload.Buttons = r.apartmentButtons()

	case fsm.ShowDownPaymentOptions:
		payload.Text = fmt.Sprintf(textChooseDownPayment, d.Unit.Label, pricing.FormatMoney(d.Total), r.opts.Currency)
		payload.Buttons = r.percentButtons()

	case fsm.ShowCalculationResult:
		plan := d.Plan
		c := r.opts.Currency
		payload.Text = fmt.Sprintf(textCalculation,
			d.Unit.Label,
			pricing.FormatMoney(d.Total), c,
			d.Percent.String(), pricing.FormatMoney(plan.DownPayment), c,
			pricing.FormatMoney(plan.RemainingBalance), c,
			len(plan.Schedule), pricing.FormatMoney(plan.MonthlyInstallment), c,
		)
		payload.Buttons = [][]botport.Button{
			{{Label: ButtonPaymentSchedule, Token: action.TokenPaymentSchedule}},
			{{Label: ButtonLocation, Token: action.TokenLocation}},
			{{Label: ButtonBackToApartments, Token: action.TokenBackToApartments}},
			{{Label: ButtonBackToMain, Token: action.TokenBackToMain}},
		}

	case fsm.ShowPaymentSchedule:
		payload.Text = r.scheduleText(d)
		payload.Buttons = [][]botport.Button{
			{{Label: ButtonBackToApartments, Token: action.TokenBackToApartments}},
			{{Label: ButtonBackToMain, Token: action.TokenBackToMain}},
		}

	case fsm.ShowVenue:
		v := r.opts.Venue
		payload.Text = textVenue
		payload.Media = &botport.Media{
			Kind:      botport.MediaVenue,
			Title:     v.Title,
			Address:   v.Address,
			Latitude:  v.Latitude,
			Longitude: v.Longitude,
		}
		payload.Buttons = r.mainMenu(menuOptions{omitLocation: true})

	case fsm.ShowVideo:
		payload.Text = textVideo
		payload.Media = &botport.Media{Kind: botport.MediaVideo, Ref: r.opts.VideoURL}
		payload.Buttons = r.mainMenu(menuOptions{omitPhoto: true})

	case fsm.ShowNextGalleryPhoto:
		payload.Buttons = r.mainMenu(menuOptions{omitVideo: true, photoLabel: ButtonMorePhotos})
		path, ok := r.opts.Gallery.Photo(d.GalleryIndex)
		if !ok {
			payload.Text = textGalleryEmpty
			break
		}
		payload.Text = fmt.Sprintf(textPhotoCaption, d.GalleryIndex, r.opts.Gallery.Len())
		payload.Media = &botport.Media{Kind: botport.MediaPhoto, Ref: path}

	default:
		log.Printf("[Render] Unknown decision kind %d for chat %d, falling back to intro", d.Kind, chatID)
		payload.Text = r.opts.Intro
		payload.Buttons = r.mainMenu(menuOptions{})
	}

	return payload
}

func (r *Renderer) mainMenu(o menuOptions) [][]botport.Button {
	rows := [][]botport.Button{
		{{Label: ButtonGetPrice, Token: action.TokenGetPrice}},
	}
	if !o.omitLocation {
		rows = append(rows, []botport.Button{{Label: ButtonLocation, Token: action.TokenLocation}})
	}

	var media []botport.Button
	if !o.omitPhoto && r.opts.Gallery.Len() > 0 {
		label := ButtonShowPhoto
		if o.photoLabel != "" {
			label = o.photoLabel
		}
		media = append(media, botport.Button{Label: label, Token: action.TokenShowPhoto})
	}
	if !o.omitVideo && r.opts.VideoURL != "" {
		media = append(media, botport.Button{Label: ButtonShowVideo, Token: action.TokenShowVideo})
	}
	if len(media) > 0 {
		rows = append(rows, media)
	}
	return rows
}

func (r *Renderer) apartmentButtons() [][]botport.Button {
	units := r.opts.Catalog.ListApartments()
	rows := make([][]botport.Button, 0, len(units)+1)
	for _, u := range units {
		rows = append(rows, []botport.Button{{Label: u.Label, Token: action.ApartToken(u.Area)}})
	}
	return append(rows, []botport.Button{{Label: ButtonBackToMain, Token: action.TokenBackToMain}})
}

func (r *Renderer) percentButtons() [][]botport.Button {
	const perRow = 2
	var rows [][]botport.Button
	var row []botport.Button
	for _, p := range r.opts.Catalog.ListDownPaymentPercents() {
		row = append(row, botport.Button{Label: p.String() + "%", Token: action.PayToken(p)})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []botport.Button{{Label: ButtonBackToApartments, Token: action.TokenBackToApartments}})
}

type scheduleRowView struct {
	Date    string
	Payment string
	Balance string
}

type scheduleView struct {
	Label       string
	Percent     string
	Total       string
	Currency    string
	StartDate   string
	DownPayment string
	Rows        []scheduleRowView
}

func (r *Renderer) scheduleText(d fsm.Decision) string {
	plan := d.Plan
	view := scheduleView{
		Label:       d.Unit.Label,
		Percent:     d.Percent.String(),
		Total:       pricing.FormatMoney(plan.TotalPrice),
		Currency:    r.opts.Currency,
		StartDate:   plan.StartDate.Format(dateLayout),
		DownPayment: pricing.FormatMoney(plan.DownPayment),
		Rows:        make([]scheduleRowView, 0, len(plan.Schedule)),
	}
	for _, row := range plan.Schedule {
		view.Rows = append(view.Rows, scheduleRowView{
			Date:    row.Date.Format(dateLayout),
			Payment: pricing.FormatMoney(row.Payment),
			Balance: pricing.FormatMoney(row.BalanceAfter),
		})
	}

	var buf bytes.Buffer
	if err := scheduleTpl.Execute(&buf, view); err != nil {
		log.Printf("[scheduleText] Failed to render schedule: %v", err)
		return fmt.Sprintf(textCalculation,
			d.Unit.Label,
			view.Total, view.Currency,
			view.Percent, view.DownPayment, view.Currency,
			pricing.FormatMoney(plan.RemainingBalance), view.Currency,
			len(plan.Schedule), pricing.FormatMoney(plan.MonthlyInstallment), view.Currency,
		)
	}
	return strings.TrimRight(buf.String(), "\n")
}
