package lgro

// Reporter receives operator-facing status messages keyed by entity name
// and id. It never influences control flow.
type Reporter interface {
	Info(entity string, id int, lines ...string)
	Warn(entity string, id int, lines ...string)
	Error(entity string, id int, lines ...string)
}

type nopReporter struct{}

func (nopReporter) Info(string, int, ...string)  {}
func (nopReporter) Warn(string, int, ...string)  {}
func (nopReporter) Error(string, int, ...string) {}
