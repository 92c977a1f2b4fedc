package metrics

import (
	"time"

	"github.com/limaJavier/invigilation/pkg/allocation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

const (
	Namespace = "invigilation"

	LabelStrategy = "strategy"
	LabelOutcome  = "outcome"

	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Recorder collects allocation run metrics
type Recorder struct {
	runs            *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	unstaffedRooms  *prometheus.CounterVec
	droppedStudents *prometheus.CounterVec
	seatsRequired   *prometheus.GaugeVec
	seatsFilled     *prometheus.GaugeVec
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	recorder := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "allocation_runs_total",
			Help:      "Number of allocation runs by strategy and outcome.",
		}, []string{LabelStrategy, LabelOutcome}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "allocation_duration_seconds",
			Help:      "Duration of successful allocation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{LabelStrategy}),
		unstaffedRooms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unstaffed_rooms_total",
			Help:      "Rooms for which no eligible teacher was found.",
		}, []string{LabelStrategy}),
		droppedStudents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dropped_students_total",
			Help:      "Students left without a seat because rooms ran out.",
		}, []string{LabelStrategy}),
		seatsRequired: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_seats_required",
			Help:      "Invigilator seats required by the last allocation run.",
		}, []string{LabelStrategy}),
		seatsFilled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_seats_filled",
			Help:      "Invigilator seats filled by the last allocation run.",
		}, []string{LabelStrategy}),
	}

	registerer.MustRegister(
		recorder.runs,
		recorder.duration,
		recorder.unstaffedRooms,
		recorder.droppedStudents,
		recorder.seatsRequired,
		recorder.seatsFilled,
	)
	return recorder
}

func (recorder *Recorder) ObserveRun(strategy allocation.Strategy, elapsed time.Duration, result allocation.Result) {
	label := string(strategy)
	recorder.runs.WithLabelValues(label, OutcomeSucceeded).Inc()
	recorder.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	recorder.unstaffedRooms.WithLabelValues(label).Add(float64(result.Diagnostics.UnstaffedRooms))
	recorder.droppedStudents.WithLabelValues(label).Add(float64(lo.SumBy(result.Diagnostics.DroppedDemand, func(demand allocation.DroppedDemand) int {
		return demand.Students
	})))
	recorder.seatsRequired.WithLabelValues(label).Set(float64(result.Diagnostics.Staffing.SeatsRequired))
	recorder.seatsFilled.WithLabelValues(label).Set(float64(result.Diagnostics.Staffing.SeatsFilled))
}

func (recorder *Recorder) ObserveFailure(strategy allocation.Strategy) {
	recorder.runs.WithLabelValues(string(strategy), OutcomeFailed).Inc()
}
