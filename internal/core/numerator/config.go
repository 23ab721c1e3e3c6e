package numerator

// Strategy defines the sequence allocation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every code.
	// Guarantees sequential codes without gaps. Use for purchase
	// orders and anything an accountant will read.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if the application restarts.
	// Suitable for high-volume internal codes (ledger transactions, picks).
	StrategyCached
)

// Options configuration for code generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values to allocate at once in Cached
	// strategy. Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config holds code generation configuration.
type Config struct {
	// Prefix identifies the document type (e.g. "PO", "IN", "OUT", "ADJ", "AUD", "PICK")
	Prefix string

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int
}

// DefaultConfig returns the standard config for a prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 4,
	}
}

// Well-known prefixes.
const (
	PrefixPurchaseOrder = "PO"
	PrefixInbound       = "IN"
	PrefixOutbound      = "OUT"
	PrefixAdjustment    = "ADJ"
	PrefixTransfer      = "TRF"
	PrefixAudit         = "AUD"
	PrefixPicking       = "PICK"
	PrefixSalesOrder    = "SO"
)
