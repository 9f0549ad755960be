package escrow

import (
	"errors"

	"github.com/tendermint/escrow/internal/listing"
)

// Result codes returned in CheckTx, DeliverTx and Query responses.
const (
	CodeTypeOK             uint32 = 0
	CodeTypeEncodingError  uint32 = 1
	CodeTypeNotFound       uint32 = 2
	CodeTypeAlreadyExists  uint32 = 3
	CodeTypeBidTooLow      uint32 = 4
	CodeTypeAuctionClosed  uint32 = 5
	CodeTypeAuctionNotOver uint32 = 6
	CodeTypeAuctionExpired uint32 = 7
	CodeTypePriceMismatch  uint32 = 8
	CodeTypeUnauthorized   uint32 = 9
	CodeTypeWrongMode      uint32 = 10
	CodeTypeInvalidListing uint32 = 11
	CodeTypeInvalidOrder   uint32 = 12
	CodeTypeUnknownError   uint32 = 13
)

// codeFor maps an action error to its result code.
func codeFor(err error) uint32 {
	switch {
	case err == nil:
		return CodeTypeOK
	case errors.Is(err, ErrMalformedTx), errors.Is(err, ErrUnknownTxType):
		return CodeTypeEncodingError
	case errors.Is(err, listing.ErrNotFound):
		return CodeTypeNotFound
	case errors.Is(err, listing.ErrAlreadyExists):
		return CodeTypeAlreadyExists
	case errors.Is(err, listing.ErrBidTooLow):
		return CodeTypeBidTooLow
	case errors.Is(err, listing.ErrAuctionClosed):
		return CodeTypeAuctionClosed
	case errors.Is(err, listing.ErrAuctionNotOver):
		return CodeTypeAuctionNotOver
	case errors.Is(err, listing.ErrAuctionExpired):
		return CodeTypeAuctionExpired
	case errors.Is(err, listing.ErrPriceMismatch):
		return CodeTypePriceMismatch
	case errors.Is(err, listing.ErrUnauthorized):
		return CodeTypeUnauthorized
	case errors.Is(err, listing.ErrWrongMode):
		return CodeTypeWrongMode
	case errors.Is(err, listing.ErrInvalidListing):
		return CodeTypeInvalidListing
	case errors.Is(err, listing.ErrInvalidOrder):
		return CodeTypeInvalidOrder
	default:
		return CodeTypeUnknownError
	}
}
