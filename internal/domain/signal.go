package domain

// Signal is the verdict for one symbol at one evaluation instant. It is
// produced by the signal engine, consumed once by the order gate and never
// persisted. A no-fire verdict is a normal value, not an error.
type Signal struct {
	Symbol         string
	Fired          bool
	VolumeRatio    float64 // latest volume / trailing average volume
	PriceChangePct float64 // (close - open) / open of the latest bar
	ReferencePrice float64 // latest close, the price the verdict was based on
}

// Decision is the order gate's answer for a fired signal.
type Decision string

const (
	SubmitBuy    Decision = "SUBMIT_BUY"
	SkipExisting Decision = "SKIP_EXISTING" // already holding the symbol
	SkipCap      Decision = "SKIP_CAP"      // concurrent position cap reached
)
