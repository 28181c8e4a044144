package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/checkout-service/domain"
)

var (
	ErrUnknownRegion         = errors.New("unknown delivery region")
	ErrManualEntryNotAllowed = errors.New("manual address entry is only available to agents")
	ErrEmptyAddress          = errors.New("delivery address is empty")
	ErrNoAddress             = errors.New("no delivery address selected")
)

// DeliveryWriter persists the committed delivery info and announces the change.
type DeliveryWriter interface {
	SetDeliveryInfo(ctx context.Context, sessionID string, info domain.DeliveryInfo) error
}

// Selector resolves a delivery destination for one session, either by
// region/town lookup or by manual entry.
type Selector struct {
	table       FeeTable
	writer      DeliveryWriter
	sessionID   string
	accountType domain.AccountType

	region   string
	town     string
	fee      float64
	feeSet   bool
	manual   string
	isManual bool
}

func NewSelector(table FeeTable, writer DeliveryWriter, sessionID string, accountType domain.AccountType) *Selector {
	return &Selector{
		table:       table,
		writer:      writer,
		sessionID:   sessionID,
		accountType: accountType,
	}
}

// SelectRegion switches to lookup mode and clears town and fee.
func (s *Selector) SelectRegion(region string) error {
	if !s.table.HasRegion(region) {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	s.region = region
	s.town = ""
	s.fee = 0
	s.feeSet = false
	s.isManual = false
	s.manual = ""
	return nil
}

// SelectTown sets the town and its fee. Without a region, or for a pair that
// is not in the table, nothing changes.
func (s *Selector) SelectTown(town string) {
	if s.region == "" {
		return
	}
	fee, ok := s.table.Fee(s.region, town)
	if !ok {
		return
	}
	s.town = town
	s.fee = fee
	s.feeSet = true
}

// EnterManualAddress switches to free-text mode, which always has a zero fee.
func (s *Selector) EnterManualAddress(text string) error {
	if !s.accountType.IsAgent() {
		return ErrManualEntryNotAllowed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyAddress
	}
	s.isManual = true
	s.manual = text
	s.region = ""
	s.town = ""
	s.fee = 0
	s.feeSet = true
	return nil
}

// Current returns the resolved delivery info, ok is false until an address
// and fee are both known.
func (s *Selector) Current() (domain.DeliveryInfo, bool) {
	if s.isManual {
		return domain.DeliveryInfo{Address: s.manual, Fee: 0}, true
	}
	if s.region == "" || s.town == "" || !s.feeSet {
		return domain.DeliveryInfo{}, false
	}
	return domain.DeliveryInfo{
		Address: fmt.Sprintf("%s (%s)", s.town, s.region),
		Fee:     s.fee,
	}, true
}

// Commit overwrites the session delivery info with the current selection.
func (s *Selector) Commit(ctx context.Context) (domain.DeliveryInfo, error) {
	info, ok := s.Current()
	if !ok {
		return domain.DeliveryInfo{}, ErrNoAddress
	}
	if err := s.writer.SetDeliveryInfo(ctx, s.sessionID, info); err != nil {
		return domain.DeliveryInfo{}, fmt.Errorf("failed to commit delivery info: %w", err)
	}
	return info, nil
}
