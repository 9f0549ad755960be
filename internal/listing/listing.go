package listing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Mode is the pricing mode of a listing. The zero value is not a valid mode.
type Mode uint8

const (
	ModeUnknown Mode = iota
	ModeFixed
	ModeEnglish
	ModeDutch
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeEnglish:
		return "english"
	case ModeDutch:
		return "dutch"
	default:
		return "unknown"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "fixed":
		return ModeFixed, nil
	case "english":
		return ModeEnglish, nil
	case "dutch":
		return ModeDutch, nil
	default:
		return ModeUnknown, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Key identifies a listing: the unique asset it offers.
type Key struct {
	CollectionID string `json:"collection_id" validate:"required"`
	AssetID      uint64 `json:"asset_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.CollectionID, k.AssetID)
}

// ValidateBasic performs stateless checks on the key.
func (k Key) ValidateBasic() error {
	if err := validate.Struct(k); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	return nil
}

// Listing offers one unique asset for sale against a payment asset.
//
// HighBid doubles as the ask price: it is the fixed price for ModeFixed, the
// starting price for ModeDutch and the reserve, then the current highest bid,
// for ModeEnglish. FloorPrice is only used by ModeDutch.
type Listing struct {
	Owner        string `json:"owner" validate:"required"`
	CollectionID string `json:"collection_id" validate:"required"`
	AssetID      uint64 `json:"asset_id"`
	Mode         Mode   `json:"mode" validate:"required"`
	HighBid      uint64 `json:"high_bid"`
	HighBidder   string `json:"high_bidder,omitempty"`
	FloorPrice   uint64 `json:"floor_price"`
	StartTime    uint64 `json:"start_time"`
	EndTime      uint64 `json:"end_time" validate:"gtfield=StartTime"`
}

// Key returns the store key of the listing.
func (l Listing) Key() Key {
	return Key{CollectionID: l.CollectionID, AssetID: l.AssetID}
}

// AskPrice is the seller's price for fixed listings.
func (l Listing) AskPrice() uint64 {
	return l.HighBid
}

// HasBidder reports whether an English bid has been recorded.
func (l Listing) HasBidder() bool {
	return l.HighBidder != ""
}

// ValidateBasic checks a listing about to be registered.
func (l Listing) ValidateBasic() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	switch l.Mode {
	case ModeFixed, ModeEnglish:
	case ModeDutch:
		if l.FloorPrice > l.HighBid {
			return fmt.Errorf("%w: floor price %d above starting price %d",
				ErrInvalidListing, l.FloorPrice, l.HighBid)
		}
		// the curve must drop by at least one unit per block
		if l.HighBid-l.FloorPrice < l.EndTime-l.StartTime {
			return fmt.Errorf("%w: price range %d shorter than duration %d",
				ErrInvalidListing, l.HighBid-l.FloorPrice, l.EndTime-l.StartTime)
		}
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidListing, l.Mode)
	}
	if l.HasBidder() {
		return fmt.Errorf("%w: new listing already has a bidder", ErrInvalidListing)
	}
	return nil
}

// BuyOrder is a buyer's offer against a listing. It is never persisted.
type BuyOrder struct {
	Buyer             string `json:"buyer" validate:"required"`
	PaymentCollection string `json:"payment_collection" validate:"required"`
	Amount            uint64 `json:"amount"`
	CollectionID      string `json:"collection_id" validate:"required"`
	AssetID           uint64 `json:"asset_id"`
}

// Key returns the key of the listing the order targets.
func (o BuyOrder) Key() Key {
	return Key{CollectionID: o.CollectionID, AssetID: o.AssetID}
}

func (o BuyOrder) ValidateBasic() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	return nil
}
