package decompile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/pordis/pkg/printer"
)

var cborEncMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("decompile: invalid cbor encoding options: %v", err))
	}
	cborEncMode = mode
}

// DumpCBOR encodes a container's decompiled events in canonical CBOR,
// for tooling that wants the reconstructed AST rather than the rendered
// text listing.
func DumpCBOR(events []printer.Event) ([]byte, error) {
	data, err := cborEncMode.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}
	return data, nil
}

// LoadCBOR decodes a dump produced by DumpCBOR.
func LoadCBOR(data []byte) ([]printer.Event, error) {
	var events []printer.Event
	if err := cbor.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return events, nil
}
