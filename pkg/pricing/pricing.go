package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTermMonths is the number of monthly installments that follow the down payment.
const DefaultTermMonths = 23

const moneyPlaces = 2

var ErrInvalidTerm = errors.New("pricing: term must be a positive number of months")

var hundred = decimal.NewFromInt(100)

// ScheduleRow is one monthly installment of a payment plan.
type ScheduleRow struct {
	MonthOffset  int
	Date         time.Time
	Payment      decimal.Decimal
	BalanceAfter decimal.Decimal
}

// PaymentPlan is computed on demand and never stored.
type PaymentPlan struct {
	TotalPrice         decimal.Decimal
	DownPayment        decimal.Decimal
	RemainingBalance   decimal.Decimal
	MonthlyInstallment decimal.Decimal
	StartDate          time.Time
	Schedule           []ScheduleRow
}

// ComputeDownPayment returns area * pricePerSqM * percent / 100.
func ComputeDownPayment(area, pricePerSqM, percent decimal.Decimal) decimal.Decimal {
	return area.Mul(pricePerSqM).Mul(percent).Div(hundred)
}

// ComputeRemainingBalance returns totalPrice - downPayment.
func ComputeRemainingBalance(totalPrice, downPayment decimal.Decimal) decimal.Decimal {
	return totalPrice.Sub(downPayment)
}

// ComputeSchedule splits remaining into termMonths equal installments rounded to cents.
// The last installment absorbs the rounding residue, so the final balance is exactly zero.
// Installment dates are startDate shifted by the month offset (see AddMonths); the down payment itself
// is due at startDate.
func ComputeSchedule(remaining decimal.Decimal, termMonths int, startDate time.Time, downPayment decimal.Decimal) (PaymentPlan, error) {
	if termMonths <= 0 {
		return PaymentPlan{}, ErrInvalidTerm
	}

	installment := remaining.Div(decimal.NewFromInt(int64(termMonths))).Round(moneyPlaces)

	plan := PaymentPlan{
		TotalPrice:         remaining.Add(downPayment),
		DownPayment:        downPayment,
		RemainingBalance:   remaining,
		MonthlyInstallment: installment,
		StartDate:          startDate,
		Schedule:           make([]ScheduleRow, 0, termMonths),
	}

	balance := remaining
	for offset := 1; offset <= termMonths; offset++ {
		payment := installment
		if offset == termMonths {
			payment = balance
		}
		balance = balance.Sub(payment)
		plan.Schedule = append(plan.Schedule, ScheduleRow{
			MonthOffset:  offset,
			Date:         AddMonths(startDate, offset),
			Payment:      payment,
			BalanceAfter: balance,
		})
	}
	return plan, nil
}

// AddMonths shifts t by months calendar months, clamping the day to the last day of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Engine binds the fixed unit price and term to the pure computations above.
type Engine struct {
	pricePerSqM decimal.Decimal
	termMonths  int
	now         func() time.Time
}

// NewEngine validates the price and term. A nil clock defaults to time.Now.
func NewEngine(pricePerSqM decimal.Decimal, termMonths int, now func() time.Time) (*Engine, error) {
	if !pricePerSqM.IsPositive() {
		return nil, fmt.Errorf("pricing: price per square meter must be positive, got %s", pricePerSqM)
	}
	if termMonths <= 0 {
		return nil, ErrInvalidTerm
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{pricePerSqM: pricePerSqM, termMonths: termMonths, now: now}, nil
}

func (e *Engine) PricePerSqM() decimal.Decimal { return e.pricePerSqM }

func (e *Engine) TermMonths() int { return e.termMonths }

// TotalPrice returns area * price.
func (e *Engine) TotalPrice(area decimal.Decimal) decimal.Decimal {
	return area.Mul(e.pricePerSqM)
}

// Plan computes the full payment plan for a unit area and a down payment percent,
// starting today.
func (e *Engine) Plan(area, percent decimal.Decimal) (PaymentPlan, error) {
	total := e.TotalPrice(area)
	down := ComputeDownPayment(area, e.pricePerSqM, percent)
	remaining := ComputeRemainingBalance(total, down)

	now := e.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return ComputeSchedule(remaining, e.termMonths, start, down)
}

// FormatMoney renders d with two decimal digits and space-grouped thousands.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(moneyPlaces)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
