package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleConfig = `
price_per_square_meter: 1000
currency: AMD
apartments:
  - area: 45
    label: "1 комната, 45 м²"
  - area: 62.5
    label: "2 комнаты, 62.5 м²"
down_payment_percents: [50, 60, 70]
intro_path: assets/intro.txt
gallery_dir: assets/gallery
video_url: https://youtu.be/kanaker
venue:
  title: Kanaker Park
  address: Yerevan, Kanaker
  latitude: 40.2121
  longitude: 44.5410
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TermMonths != 23 {
		t.Fatalf("expected default term 23, got %d", cfg.TermMonths)
	}
	if !cfg.Apartments[1].Area.Equal(decimal.RequireFromString("62.5")) {
		t.Fatalf("unexpected area %s", cfg.Apartments[1].Area)
	}
	store, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(store.ListApartments()) != 2 || len(store.ListDownPaymentPercents()) != 3 {
		t.Fatalf("unexpected catalog contents")
	}
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"zero price":     strings.Replace(sampleConfig, "price_per_square_meter: 1000", "price_per_square_meter: 0", 1),
		"no intro":       strings.Replace(sampleConfig, "intro_path: assets/intro.txt", "", 1),
		"duplicate area": strings.Replace(sampleConfig, "area: 62.5", "area: 45", 1),
		"bad percent":    strings.Replace(sampleConfig, "[50, 60, 70]", "[50, 120]", 1),
		"negative term":  sampleConfig + "term_months: -1\n",
		"bad latitude":   strings.Replace(sampleConfig, "latitude: 40.2121", "latitude: 140", 1),
		"not a number":   strings.Replace(sampleConfig, "area: 45", "area: big", 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfigStoresResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadConfig(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg := GetConfig(); cfg == nil || cfg.Venue.Title != "Kanaker Park" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadSettings(t *testing.T) {
	env := map[string]string{
		"TELEGRAM_BOT_TOKEN":     "token",
		"PRICE_PER_SQUARE_METER": "1200.50",
		"SEND_RATE_PER_SECOND":   "10",
	}
	s, err := loadSettings(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ConfigPath != DefaultConfigPath || s.HTTPAddr != DefaultHTTPAddr || s.SendRate != 10 {
		t.Fatalf("unexpected settings %+v", s)
	}

	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s.ApplyOverrides(cfg)
	if !cfg.PricePerSquareMeter.Equal(decimal.RequireFromString("1200.5")) {
		t.Fatalf("expected price override, got %s", cfg.PricePerSquareMeter)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	cases := []map[string]string{
		{},
		{"TELEGRAM_BOT_TOKEN": "t", "PRICE_PER_SQUARE_METER": "-5"},
		{"TELEGRAM_BOT_TOKEN": "t", "SEND_RATE_PER_SECOND": "fast"},
	}
	for i, env := range cases {
		if _, err := loadSettings(func(k string) string { return env[k] }); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
