package assets

import "github.com/ethereum/go-ethereum/common"

// Checkout buys Starknet USDC and settles the bridge leg with a card-funded
// asset on Polygon. All of this is static routing data; nothing here touches
// the network.

const (
	// PolygonChainID is the settlement chain the bridge is paid on.
	PolygonChainID = 137
	// PolygonNetworkName is the network key used by the Stripe on-ramp API.
	PolygonNetworkName = "polygon"
	// StarknetChainID is the destination chain identifier used by the funkit
	// API (decimal encoding of the SN_MAIN chain id).
	StarknetChainID = "23448594291968334"
	// StripeSourceCurrency is the fiat currency the card is charged in.
	StripeSourceCurrency = "usd"
)

// Token describes the destination token of a checkout.
type Token struct {
	Address  string
	Symbol   string
	Decimals int32
}

// StarknetUSDC is the only destination token checkout supports.
var StarknetUSDC = Token{
	Address:  "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8",
	Symbol:   "usdc",
	Decimals: 6,
}

// SourceAsset is the Polygon-side asset used to pay the bridge. Picked once
// per request and immutable afterwards.
type SourceAsset struct {
	ChainID      int
	TokenAddress common.Address
	Symbol       string
	Decimals     int32
}

var (
	polygonUSDC = SourceAsset{
		ChainID:      PolygonChainID,
		TokenAddress: common.HexToAddress("0x3c499c542cef5e3811e1192ce70d8cc03d5c3359"),
		Symbol:       "usdc",
		Decimals:     6,
	}
	polygonETH = SourceAsset{
		ChainID:      PolygonChainID,
		TokenAddress: common.HexToAddress("0x7ceb23fd6bc0add59e62ac25578270cff1b9f619"),
		Symbol:       "eth",
		Decimals:     18,
	}
)

// PickSourceAsset selects the source asset for a checkout. New York
// residents cannot buy USDC through the Stripe on-ramp, so the NY flag
// routes through ETH instead. Pure lookup, never fails.
func PickSourceAsset(isNY bool) SourceAsset {
	if isNY {
		return polygonETH
	}
	return polygonUSDC
}
