package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	TicksReceived  Counter
	FetchFailures  Counter
	RefreshCycles  Counter
	Evaluations    Counter
	TradesApproved Counter
	TradesRejected Counter
	PublishDrops   Counter
	HistoryDrops   Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

// NewNoop returns metrics that discard everything, for tests and for
// embedding the engine without a Prometheus registry.
func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		TicksReceived:  n,
		FetchFailures:  n,
		RefreshCycles:  n,
		Evaluations:    n,
		TradesApproved: n,
		TradesRejected: n,
		PublishDrops:   n,
		HistoryDrops:   n,
	}
}
