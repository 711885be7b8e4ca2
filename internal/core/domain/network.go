package domain

import "github.com/shopspring/decimal"

// NetworkCode identifies a destination rail. Networks are display-only: no
// chain interaction happens, but each carries its own fee and minimum policy.
type NetworkCode string

const (
	NetworkTRC20 NetworkCode = "TRC20"
	NetworkERC20 NetworkCode = "ERC20"
	NetworkBEP20 NetworkCode = "BEP20"
)

// DefaultNetwork is used for buys, which carry no network selection.
const DefaultNetwork = NetworkTRC20

// Network holds the per-rail transfer policy.
type Network struct {
	Code      NetworkCode     `json:"code"`
	Name      string          `json:"name"`
	Fee       decimal.Decimal `json:"fee"`
	MinAmount decimal.Decimal `json:"min_amount"`
}

var networks = map[NetworkCode]Network{
	NetworkTRC20: {Code: NetworkTRC20, Name: "Tron (TRC20)", Fee: decimal.NewFromInt(1), MinAmount: decimal.NewFromInt(10)},
	NetworkERC20: {Code: NetworkERC20, Name: "Ethereum (ERC20)", Fee: decimal.NewFromInt(5), MinAmount: decimal.NewFromInt(50)},
	NetworkBEP20: {Code: NetworkBEP20, Name: "BNB Smart Chain (BEP20)", Fee: decimal.NewFromInt(1), MinAmount: decimal.NewFromInt(10)},
}

// LookupNetwork resolves a network code. ok is false for unknown codes.
func LookupNetwork(code NetworkCode) (Network, bool) {
	n, ok := networks[code]
	return n, ok
}

// Networks returns all supported rails in a stable order.
func Networks() []Network {
	return []Network{networks[NetworkTRC20], networks[NetworkERC20], networks[NetworkBEP20]}
}
