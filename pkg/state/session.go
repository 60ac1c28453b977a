package state

import (
	"sync"

	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
)

// Session is the per-conversation selection state. Derived amounts (down payment,
// remaining balance) are recomputed from the selections and never stored here.
// Callers must hold Mu while reading or mutating the session.
type Session struct {
	ConversationID  int64
	UserName        string
	SelectedArea    decimal.NullDecimal
	SelectedPercent decimal.NullDecimal
	// GalleryIndex is 0 until the first photo is shown, then cycles over [1, photoCount].
	GalleryIndex int
	Screen       *fsm.FSM
	Mu           sync.Mutex
}

func (s *Session) SelectArea(area decimal.Decimal) {
	if s.SelectedArea.Valid && !s.SelectedArea.Decimal.Equal(area) {
		s.SelectedPercent = decimal.NullDecimal{}
	}
	s.SelectedArea = decimal.NullDecimal{Decimal: area, Valid: true}
}

func (s *Session) SelectPercent(percent decimal.Decimal) {
	s.SelectedPercent = decimal.NullDecimal{Decimal: percent, Valid: true}
}

// NextGalleryIndex advances the gallery cursor and returns the new 1-based index.
// It returns 0 when photoCount is not positive.
func (s *Session) NextGalleryIndex(photoCount int) int {
	if photoCount <= 0 {
		return 0
	}
	s.GalleryIndex = (s.GalleryIndex % photoCount) + 1
	return s.GalleryIndex
}

// CurrentScreen returns the screen FSM state, or "" when no FSM is attached.
func (s *Session) CurrentScreen() string {
	if s.Screen == nil {
		return ""
	}
	return s.Screen.Current()
}
