package config

import (
	"fmt"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/catalog"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/pricing"

	"github.com/shopspring/decimal"
)

type BotConfig struct {
	PricePerSquareMeter decimal.Decimal   `yaml:"price_per_square_meter"`
	Currency            string            `yaml:"currency"`
	TermMonths          int               `yaml:"term_months,omitempty"`
	Apartments          []ApartmentConfig `yaml:"apartments"`
	DownPaymentPercents []decimal.Decimal `yaml:"down_payment_percents"`
	IntroPath           string            `yaml:"intro_path"`
	GalleryDir          string            `yaml:"gallery_dir,omitempty"`
	VideoURL            string            `yaml:"video_url,omitempty"`
	Venue               VenueConfig       `yaml:"venue"`
}

type ApartmentConfig struct {
	Area  decimal.Decimal `yaml:"area"`
	Label string          `yaml:"label"`
}

type VenueConfig struct {
	Title     string  `yaml:"title"`
	Address   string  `yaml:"address"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// applyDefaults fills optional fields left empty in the file.
func (bc *BotConfig) applyDefaults() {
	if bc.TermMonths == 0 {
		bc.TermMonths = pricing.DefaultTermMonths
	}
	if bc.Currency == "" {
		bc.Currency = "AMD"
	}
}

func (bc *BotConfig) Validate() error {
	if bc == nil {
		return fmt.Errorf("config is nil")
	}
	if !bc.PricePerSquareMeter.IsPositive() {
		return fmt.Errorf("config validation failed: price_per_square_meter must be positive, got %s", bc.PricePerSquareMeter)
	}
	if bc.TermMonths <= 0 {
		return fmt.Errorf("config validation failed: term_months must be positive, got %d", bc.TermMonths)
	}
	if bc.IntroPath == "" {
		return fmt.Errorf("config validation failed: intro_path is required")
	}
	if bc.Venue.Title == "" || bc.Venue.Address == "" {
		return fmt.Errorf("config validation failed: venue needs a title and an address")
	}
	if bc.Venue.Latitude < -90 || bc.Venue.Latitude > 90 || bc.Venue.Longitude < -180 || bc.Venue.Longitude > 180 {
		return fmt.Errorf("config validation failed: venue coordinates %v,%v are out of range", bc.Venue.Latitude, bc.Venue.Longitude)
	}
	if _, err := bc.Catalog(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Catalog builds the apartment catalog described by the file.
func (bc *BotConfig) Catalog() (*catalog.Store, error) {
	units := make([]catalog.ApartmentUnit, 0, len(bc.Apartments))
	for _, a := range bc.Apartments {
		units = append(units, catalog.ApartmentUnit{Area: a.Area, Label: a.Label})
	}
	return catalog.New(units, bc.DownPaymentPercents)
}
