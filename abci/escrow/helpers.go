package escrow

import (
	"github.com/tendermint/escrow/internal/listing"
)

// NewRegisterTx returns an encoded transaction registering l, sent by its
// owner.
func NewRegisterTx(l listing.Listing) []byte {
	return mustEncode(&Tx{Type: TxRegister, Sender: l.Owner, Listing: &l})
}

// NewOrderTx returns an encoded transaction of type typ carrying order, sent
// by the order's buyer.
func NewOrderTx(typ TxType, order listing.BuyOrder) []byte {
	return mustEncode(&Tx{Type: typ, Sender: order.Buyer, Order: &order})
}

// NewReclaimTx returns an encoded transaction reclaiming the listing under
// key.
func NewReclaimTx(sender string, key listing.Key) []byte {
	return mustEncode(&Tx{Type: TxReclaim, Sender: sender, Key: &key})
}

func mustEncode(tx *Tx) []byte {
	bz, err := tx.Encode()
	if err != nil {
		panic(err)
	}
	return bz
}
