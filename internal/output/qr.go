package output

import (
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
}

// DefaultQRConfig returns defaults for terminal QR rendering.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// AddressURI returns the BIP21 payload for a receive address, upper-cased
// so bech32 fits the denser QR alphanumeric mode.
func AddressURI(address string) string {
	return "BITCOIN:" + strings.ToUpper(address)
}

// RenderQR draws address as a QR code when w is a terminal and is a no-op
// otherwise, so piped output stays machine readable.
func RenderQR(w io.Writer, address string, cfg QRConfig) error {
	if !IsTerminal(w) {
		return nil
	}

	qrterminal.GenerateWithConfig(AddressURI(address), qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
