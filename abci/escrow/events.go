package escrow

import (
	"strconv"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/tendermint/escrow/internal/exchange"
)

const (
	EventTypeExchange = "exchange"

	AttributeKeyAction     = "action"
	AttributeKeyCollection = "collection"
	AttributeKeyAssetID    = "token_id"
	AttributeKeySender     = "sender"
	AttributeKeyFrom       = "from"
	AttributeKeyTo         = "to"
	AttributeKeyAmount     = "amount"
	AttributeKeyRecipient  = "recipient"
	AttributeKeyPrice      = "price"
)

func attr(key, value string) abci.EventAttribute {
	return abci.EventAttribute{Key: []byte(key), Value: []byte(value), Index: true}
}

// resultEvents describes an accepted action: one exchange event, followed by
// one event per transfer in emission order.
func resultEvents(tx *Tx, res *exchange.Result) []abci.Event {
	events := []abci.Event{{
		Type: EventTypeExchange,
		Attributes: []abci.EventAttribute{
			attr(AttributeKeyAction, string(tx.Type)),
			attr(AttributeKeySender, tx.Sender),
			attr(AttributeKeyCollection, res.Key.CollectionID),
			attr(AttributeKeyAssetID, strconv.FormatUint(res.Key.AssetID, 10)),
			attr(AttributeKeyPrice, strconv.FormatUint(res.Price, 10)),
		},
	}}

	for _, t := range res.Transfers {
		events = append(events, transferEvent(t))
	}
	return events
}

func transferEvent(t exchange.Transfer) abci.Event {
	switch t.Kind {
	case exchange.PaymentTransfer:
		return abci.Event{
			Type: t.Kind.String(),
			Attributes: []abci.EventAttribute{
				attr(AttributeKeyCollection, t.Collection),
				attr(AttributeKeyFrom, t.From),
				attr(AttributeKeyTo, t.To),
				attr(AttributeKeyAmount, strconv.FormatUint(t.Amount, 10)),
			},
		}
	default:
		return abci.Event{
			Type: t.Kind.String(),
			Attributes: []abci.EventAttribute{
				attr(AttributeKeyCollection, t.Collection),
				attr(AttributeKeySender, t.From),
				attr(AttributeKeyRecipient, t.To),
				attr(AttributeKeyAssetID, strconv.FormatUint(t.AssetID, 10)),
			},
		}
	}
}
