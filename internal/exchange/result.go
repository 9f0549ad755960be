package exchange

import (
	"fmt"

	"github.com/tendermint/escrow/internal/listing"
)

// TransferKind tells which asset sub-system a Transfer is addressed to.
type TransferKind uint8

const (
	// PaymentTransfer moves fungible payment units between accounts.
	PaymentTransfer TransferKind = iota + 1
	// AssetTransfer moves one unique asset to a new owner.
	AssetTransfer
)

func (k TransferKind) String() string {
	switch k {
	case PaymentTransfer:
		return "transfer"
	case AssetTransfer:
		return "transfer_asset"
	default:
		return "unknown"
	}
}

// Transfer is an outbound instruction to an asset sub-system. The engine
// never executes it; the host delivers it after the action commits.
type Transfer struct {
	Kind TransferKind `json:"kind"`
	// Collection is the address of the asset sub-system: the payment token
	// contract or the unique asset's collection.
	Collection string `json:"collection"`
	From       string `json:"from"`
	To         string `json:"to"`
	// Amount is set for payment transfers, AssetID for asset transfers.
	Amount  uint64 `json:"amount,omitempty"`
	AssetID uint64 `json:"asset_id,omitempty"`
}

func (t Transfer) String() string {
	switch t.Kind {
	case PaymentTransfer:
		return fmt.Sprintf("%s{%s: %d %s -> %s}", t.Kind, t.Collection, t.Amount, t.From, t.To)
	default:
		return fmt.Sprintf("%s{%s/%d %s -> %s}", t.Kind, t.Collection, t.AssetID, t.From, t.To)
	}
}

// Op is the single store mutation an action commits.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Result is everything one accepted action does: one store mutation plus the
// ordered transfers to emit. Results are built only after validation passes
// and are committed whole by Engine.apply.
type Result struct {
	Op  Op
	Key listing.Key
	// Listing is the value written by OpCreate and OpUpdate, and the value
	// removed by OpDelete.
	Listing listing.Listing
	// Price is the settlement price, zero for actions that move no funds.
	Price     uint64
	Transfers []Transfer
}

// Settled reports whether the result is a completed trade.
func (r *Result) Settled() bool {
	return len(r.Transfers) > 0
}
