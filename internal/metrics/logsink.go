package metrics

import "go.uber.org/zap"

// LogSink is a fallback Sink for local development.
// It logs emissions as structured JSON to stdout via zap.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink that outputs emissions to the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) EmitLinear(name string, value, exclusiveMax int) {
	s.logger.Info("metric_emission",
		zap.String("metric", name),
		zap.String("kind", KindLinear),
		zap.Int("value", FoldLinear(value, exclusiveMax)),
		zap.Int("exclusive_max", exclusiveMax),
		zap.Bool("suppressed", value == SuppressedValue),
	)
}

func (s *LogSink) EmitEnum(name string, value, domainSize int) {
	s.logger.Info("metric_emission",
		zap.String("metric", name),
		zap.String("kind", KindEnum),
		zap.Int("value", value),
		zap.Int("domain_size", domainSize),
	)
}

func (s *LogSink) EmitBoolean(name string, value bool) {
	s.logger.Info("metric_emission",
		zap.String("metric", name),
		zap.String("kind", KindBoolean),
		zap.Bool("value", value),
	)
}

func (s *LogSink) Close() {}
