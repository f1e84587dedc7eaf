package chain

import (
	"github.com/shopspring/decimal"
)

// SatoshisPerBitcoin is the number of base units in one BTC.
const SatoshisPerBitcoin = 100_000_000

// btcExponent is the decimal exponent from satoshis to BTC.
const btcExponent = -8

// FormatBTC renders satoshis as a BTC amount with exactly eight decimals.
func FormatBTC(sats int64) string {
	return decimal.New(sats, btcExponent).StringFixed(8)
}
