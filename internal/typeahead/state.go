package typeahead

// State is the phase of the search input.
type State int

const (
	// Idle: the query is too short; no dropdown and no request.
	Idle State = iota
	// Pending: a debounce timer is running for the current query.
	Pending
	// Loading: a request for the latest query is in flight.
	Loading
	ShowingResults
	NoResults
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case ShowingResults:
		return "showing_results"
	case NoResults:
		return "no_results"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Key is a keyboard key the input reacts to.
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyArrowUp   Key = "ArrowUp"
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
)

// Navigation is the page a key press asks the browser to open. An empty URL
// means stay put.
type Navigation struct {
	URL string
}
