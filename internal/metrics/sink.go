package metrics

import (
	"math"
	"time"
)

// Histogram names reported by the conversion monitor and the snapshot
// reporters. The trailing enum/bucket domains are fixed; renaming a metric
// requires a new name, not a domain change.
const (
	MetricEnabledSource          = "Rewards.EnabledSource"
	MetricToolbarButtonTrigger   = "Rewards.ToolbarButtonTrigger"
	MetricTipsSent               = "Rewards.TipsSent"
	MetricAutoContributionsState = "Rewards.AutoContributionsState"
	MetricAdTypesEnabled         = "Rewards.AdTypesEnabled"
	MetricMobileConversion       = "Rewards.MobileConversion"
	MetricMobilePanelCount       = "Rewards.MobilePanelCount"
)

// SuppressedValue is the sentinel emitted to mean "not applicable". It always
// lands in a linear histogram's overflow bucket, so downstream aggregation
// can tell absence-of-data apart from a genuine zero.
const SuppressedValue = math.MaxInt32 - 1

// Sink records bucketed metric values. Implementations must never block the
// caller; dropped emissions are acceptable under backpressure.
type Sink interface {
	// EmitLinear records value into a histogram with buckets
	// 0..exclusiveMax-1 plus an implicit overflow bucket. Values at or
	// above exclusiveMax (including SuppressedValue) fold into the
	// overflow bucket.
	EmitLinear(name string, value, exclusiveMax int)

	// EmitEnum records a value from a closed enumeration of domainSize
	// members. The enum ordering is part of the reported data.
	EmitEnum(name string, value, domainSize int)

	// EmitBoolean records a true/false outcome.
	EmitBoolean(name string, value bool)

	// Close drains any buffered emissions. Safe to call once.
	Close()
}

// Emission kinds as stored by persistent sinks.
const (
	KindLinear  = "linear"
	KindEnum    = "enum"
	KindBoolean = "boolean"
)

// Emission is a single recorded metric value.
type Emission struct {
	ID           string
	SessionID    string
	RecordedAt   time.Time
	Metric       string
	Kind         string
	Value        int
	ExclusiveMax int
	Suppressed   bool
}

// FoldLinear maps a raw linear-histogram value onto its bucket. Genuine
// values below exclusiveMax pass through; everything else, the suppression
// sentinel included, folds into the overflow bucket (index exclusiveMax).
func FoldLinear(value, exclusiveMax int) int {
	if value < 0 {
		return 0
	}
	if value >= exclusiveMax {
		return exclusiveMax
	}
	return value
}
