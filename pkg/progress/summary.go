package progress

// Summary aggregates a run's notifications for display.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Percent   int
	Done      bool
}

// Summarize folds history into a Summary. Percent and Done follow the last
// notification, since percent is cumulative.
func Summarize(history []Notification) Summary {
	var s Summary
	for _, n := range history {
		s.Total++
		switch n.Outcome() {
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		default:
			s.Succeeded++
		}
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		s.Percent = last.Percent
		s.Done = last.Done()
	}
	return s
}
