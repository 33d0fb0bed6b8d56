package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the quiz prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	QuestionsShown  prometheus.Counter
	AnswersRecorded prometheus.Counter
	LateAnswers     prometheus.Counter
	ResponseTime    prometheus.Histogram
	RankingDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QuestionsShown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "questions_shown_total",
			Help:      "Questions delivered to users.",
		}),
		AnswersRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "answers_recorded_total",
			Help:      "Answers written to the attempt log.",
		}),
		LateAnswers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "late_answers_total",
			Help:      "Answers slower than the question's allowed time.",
		}),
		ResponseTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quiz",
			Name:      "response_time_seconds",
			Help:      "Measured answer latency.",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 60, 120},
		}),
		RankingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quiz",
			Name:      "ranking_duration_seconds",
			Help:      "Time spent computing rankings and statistics.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveShown() {
	if m == nil {
		return
	}
	m.QuestionsShown.Inc()
}

func (m *Metrics) ObserveAnswer(responseTime float64, late bool) {
	if m == nil {
		return
	}
	m.AnswersRecorded.Inc()
	m.ResponseTime.Observe(responseTime)
	if late {
		m.LateAnswers.Inc()
	}
}

// ObserveRanking records how long operation took since start.
func (m *Metrics) ObserveRanking(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.RankingDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
