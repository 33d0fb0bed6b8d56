package app

import (
	"time"

	"daily-quiz-service/internal/observability"
	"go.uber.org/zap"
)

// Option customizes QuizSession and Ranking.
type Option func(*options)

type options struct {
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
	metrics *observability.Metrics
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the timezone that defines calendar days for the quiz.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// today returns the current time in the quiz location.
func (o options) today() time.Time {
	return o.now().In(o.loc)
}
