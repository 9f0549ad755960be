package escrow

import (
	"errors"
	"fmt"

	tmjson "github.com/tendermint/tendermint/libs/json"

	"github.com/tendermint/escrow/internal/listing"
)

// TxType names the caller action a transaction carries.
type TxType string

const (
	TxRegister      TxType = "register"
	TxSettleFixed   TxType = "settle_fixed"
	TxPlaceBid      TxType = "place_bid"
	TxSettleEnglish TxType = "settle_english"
	TxSettleDutch   TxType = "settle_dutch"
	TxReclaim       TxType = "reclaim"
)

var (
	ErrUnknownTxType = errors.New("unknown transaction type")
	ErrMalformedTx   = errors.New("malformed transaction")
)

// Tx is the envelope of one caller action. Exactly one of Listing, Order or
// Key is set, depending on Type.
type Tx struct {
	Type   TxType `json:"type"`
	Sender string `json:"sender"`

	Listing *listing.Listing  `json:"listing,omitempty"`
	Order   *listing.BuyOrder `json:"order,omitempty"`
	Key     *listing.Key      `json:"key,omitempty"`

	// Signature is opaque to the application and only checked by a Verifier.
	Signature []byte `json:"signature,omitempty"`
}

// DecodeTx parses a raw transaction.
func DecodeTx(bz []byte) (*Tx, error) {
	if len(bz) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedTx)
	}
	tx := new(Tx)
	if err := tmjson.Unmarshal(bz, tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	return tx, nil
}

// Encode returns the wire form of tx.
func (tx *Tx) Encode() ([]byte, error) {
	return tmjson.Marshal(tx)
}

// SignBytes returns the bytes a Verifier checks Signature against: the
// encoded transaction without its signature.
func (tx *Tx) SignBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signature = nil
	return unsigned.Encode()
}

// ValidateBasic performs the stateless checks of CheckTx. Besides payload
// well-formedness it requires that a buy order is sent by its own buyer and
// a listing by its own owner.
func (tx *Tx) ValidateBasic() error {
	if tx.Sender == "" {
		return fmt.Errorf("%w: missing sender", listing.ErrUnauthorized)
	}

	switch tx.Type {
	case TxRegister:
		if tx.Listing == nil {
			return fmt.Errorf("%w: missing listing", listing.ErrInvalidListing)
		}
		if err := tx.Listing.ValidateBasic(); err != nil {
			return err
		}
		if tx.Listing.Owner != tx.Sender {
			return fmt.Errorf("%w: %q cannot list for %q", listing.ErrUnauthorized, tx.Sender, tx.Listing.Owner)
		}

	case TxSettleFixed, TxPlaceBid, TxSettleEnglish, TxSettleDutch:
		if tx.Order == nil {
			return fmt.Errorf("%w: missing order", listing.ErrInvalidOrder)
		}
		if err := tx.Order.ValidateBasic(); err != nil {
			return err
		}
		if tx.Order.Buyer != tx.Sender {
			return fmt.Errorf("%w: %q cannot order for %q", listing.ErrUnauthorized, tx.Sender, tx.Order.Buyer)
		}

	case TxReclaim:
		if tx.Key == nil {
			return fmt.Errorf("%w: missing key", listing.ErrInvalidListing)
		}
		if err := tx.Key.ValidateBasic(); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownTxType, tx.Type)
	}
	return nil
}

// Verifier authenticates the sender of a transaction, typically by checking
// Signature against SignBytes. Only its verdict is used.
type Verifier interface {
	Verify(tx *Tx) bool
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(tx *Tx) bool

func (f VerifierFunc) Verify(tx *Tx) bool { return f(tx) }

// AcceptAll trusts every sender. It is the default when the application is
// deployed behind an authenticating gateway.
var AcceptAll Verifier = VerifierFunc(func(*Tx) bool { return true })
