package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

func TestListingValidateBasic(t *testing.T) {
	testCases := map[string]struct {
		malleate  func(*Listing)
		expectErr bool
	}{
		"valid english": {
			malleate: func(*Listing) {},
		},
		"valid dutch": {
			malleate: func(l *Listing) {
				l.Mode = ModeDutch
				l.FloorPrice = 60
			},
		},
		"dutch floor equal to start": {
			malleate: func(l *Listing) {
				l.Mode = ModeDutch
				l.FloorPrice = l.HighBid
			},
			expectErr: true,
		},
		"dutch step of one": {
			malleate: func(l *Listing) {
				l.Mode = ModeDutch
				l.FloorPrice = l.HighBid - (l.EndTime - l.StartTime)
			},
		},
		"dutch flat curve": {
			malleate: func(l *Listing) {
				l.Mode = ModeDutch
				l.FloorPrice = l.HighBid - 1
				l.EndTime = l.StartTime + 10
			},
			expectErr: true,
		},
		"dutch floor above start": {
			malleate: func(l *Listing) {
				l.Mode = ModeDutch
				l.FloorPrice = l.HighBid + 1
			},
			expectErr: true,
		},
		"missing owner": {
			malleate:  func(l *Listing) { l.Owner = "" },
			expectErr: true,
		},
		"missing collection": {
			malleate:  func(l *Listing) { l.CollectionID = "" },
			expectErr: true,
		},
		"unknown mode": {
			malleate:  func(l *Listing) { l.Mode = ModeUnknown },
			expectErr: true,
		},
		"out of range mode": {
			malleate:  func(l *Listing) { l.Mode = Mode(42) },
			expectErr: true,
		},
		"end equal to start": {
			malleate:  func(l *Listing) { l.EndTime = l.StartTime },
			expectErr: true,
		},
		"end before start": {
			malleate:  func(l *Listing) { l.EndTime = l.StartTime - 1 },
			expectErr: true,
		},
		"bidder already set": {
			malleate:  func(l *Listing) { l.HighBidder = "buyer" },
			expectErr: true,
		},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			l := testListing("contract_erc721", 2)
			tc.malleate(&l)
			err := l.ValidateBasic()
			if tc.expectErr {
				require.ErrorIs(t, err, ErrInvalidListing)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBuyOrderValidateBasic(t *testing.T) {
	order := BuyOrder{
		Buyer:             "buyer",
		PaymentCollection: "contract_erc20",
		Amount:            250,
		CollectionID:      "contract_erc721",
		AssetID:           2,
	}
	require.NoError(t, order.ValidateBasic())
	assert.Equal(t, Key{CollectionID: "contract_erc721", AssetID: 2}, order.Key())

	noBuyer := order
	noBuyer.Buyer = ""
	require.ErrorIs(t, noBuyer.ValidateBasic(), ErrInvalidOrder)

	noPayment := order
	noPayment.PaymentCollection = ""
	require.ErrorIs(t, noPayment.ValidateBasic(), ErrInvalidOrder)
}

func TestModeJSON(t *testing.T) {
	for _, mode := range []Mode{ModeFixed, ModeEnglish, ModeDutch} {
		l := testListing("c", 1)
		l.Mode = mode
		bz, err := tmjson.Marshal(l)
		require.NoError(t, err)
		assert.Contains(t, string(bz), `"mode":"`+mode.String()+`"`)

		var got Listing
		require.NoError(t, tmjson.Unmarshal(bz, &got))
		assert.Equal(t, l, got)
	}

	var m Mode
	assert.Error(t, m.UnmarshalJSON([]byte(`"vickrey"`)))
	_, err := ParseMode("DUTCH")
	assert.NoError(t, err)
}
