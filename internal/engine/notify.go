package engine

// Operation names a document operation.
type Operation string

const (
	OperationBuild       Operation = "build"
	OperationMerge       Operation = "merge"
	OperationAugment     Operation = "augment"
	OperationFindReplace Operation = "replace"
)

// Event describes a completed operation.
type Event struct {
	Operation Operation
	// Title is the resulting document's title.
	Title string
	// Chapters is the chapter count of the resulting document.
	Chapters int
	// Summary holds the operation's report counts, keyed like the JSON
	// report fields ("skipped", "conflicts", "total_matches", ...).
	Summary map[string]int
}

// Notifier receives completion events. Implementations must not retain or
// mutate the Summary map after Notify returns.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) { f(ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
