package metrics

// MetricsWrapper presents the collectors behind the narrow method set the
// session consumes, so the session package depends on an interface instead
// of Prometheus types.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) ObservationInc()             { w.m.ObservationsTotal.Inc() }
func (w *MetricsWrapper) RejectInc()                  { w.m.RejectedInputs.Inc() }
func (w *MetricsWrapper) SequenceLenSet(n float64)    { w.m.SequenceLength.Set(n) }
func (w *MetricsWrapper) PredictionInc()              { w.m.PredictionsTotal.Inc() }
func (w *MetricsWrapper) ConfidenceObserve(c float64) { w.m.ConfidenceScores.Observe(c) }
func (w *MetricsWrapper) LearnStepInc()               { w.m.LearnSteps.Inc() }
func (w *MetricsWrapper) LearnSkipInc()               { w.m.LearnSkips.Inc() }
func (w *MetricsWrapper) AccuracySet(a float64)       { w.m.TrailingAccuracy.Set(a) }
func (w *MetricsWrapper) SnapshotSaveInc()            { w.m.SnapshotSaves.Inc() }
func (w *MetricsWrapper) SnapshotRestoreInc()         { w.m.SnapshotRestores.Inc() }
