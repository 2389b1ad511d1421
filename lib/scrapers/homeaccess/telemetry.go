package homeaccess

import (
	"hacproxy/lib/restyutil"
)

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput dumps every portal request/response pair to the
// given output when debug logging is enabled. Takes effect for clients
// created afterwards.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
