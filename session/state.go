package session

// State is a playback session lifecycle state.
type State string

const (
	Idle                 State = "idle"
	Resolving            State = "resolving"
	Loading              State = "loading"
	Ready                State = "ready"
	Playing              State = "playing"
	Paused               State = "paused"
	QualityChangePending State = "quality_change_pending"
	Errored              State = "errored"
	Closed               State = "closed"
)

// States lists every state, in lifecycle order.
var States = []State{Idle, Resolving, Loading, Ready, Playing, Paused, QualityChangePending, Errored, Closed}

// Event drives a state transition.
type Event string

const (
	EvInitialize       Event = "initialize"
	EvResolvedDirect   Event = "resolved_direct"
	EvResolvedEmbedded Event = "resolved_embedded"
	EvNoSource         Event = "no_source"
	EvReady            Event = "ready"
	EvPlaying          Event = "playing"
	EvPaused           Event = "paused"
	EvEnded            Event = "ended"
	EvQualityChange    Event = "quality_change"
	EvFail             Event = "fail"
	EvRetry            Event = "retry"
	EvClose            Event = "close"
)

// Transition is a single allowed edge.
type Transition struct {
	From  State
	Event Event
	To    State
}

// live are the states of an initialized, open session.
var live = []State{Resolving, Loading, Ready, Playing, Paused, QualityChangePending, Errored}

var transitionsTable = buildTable()

func buildTable() []Transition {
	table := []Transition{
		{From: Idle, Event: EvInitialize, To: Resolving},

		// resolution
		{From: Resolving, Event: EvResolvedDirect, To: Loading},
		{From: Resolving, Event: EvResolvedEmbedded, To: Ready},
		{From: Resolving, Event: EvNoSource, To: Errored},
		{From: QualityChangePending, Event: EvResolvedDirect, To: QualityChangePending},
		{From: QualityChangePending, Event: EvResolvedEmbedded, To: Ready},
		{From: QualityChangePending, Event: EvNoSource, To: Errored},

		// backend ready
		{From: Loading, Event: EvReady, To: Ready},
		{From: QualityChangePending, Event: EvReady, To: Ready},

		// transport
		{From: Ready, Event: EvPlaying, To: Playing},
		{From: Paused, Event: EvPlaying, To: Playing},
		{From: Playing, Event: EvPlaying, To: Playing},
		{From: Ready, Event: EvPaused, To: Paused},
		{From: Playing, Event: EvPaused, To: Paused},
		{From: Paused, Event: EvPaused, To: Paused},
		{From: Ready, Event: EvEnded, To: Paused},
		{From: Playing, Event: EvEnded, To: Paused},
		{From: Paused, Event: EvEnded, To: Paused},
	}

	for _, from := range live {
		if from != Resolving {
			table = append(table, Transition{From: from, Event: EvQualityChange, To: QualityChangePending})
		}
		table = append(table,
			Transition{From: from, Event: EvFail, To: Errored},
			Transition{From: from, Event: EvRetry, To: Resolving},
		)
	}

	for _, from := range append([]State{Idle}, live...) {
		table = append(table, Transition{From: from, Event: EvClose, To: Closed})
	}

	return table
}

// TransitionFor returns the allowed transition for a given state and event.
func TransitionFor(from State, ev Event) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// Loading reports whether the state waits on source resolution or a backend.
func (s State) Loading() bool {
	return s == Resolving || s == Loading || s == QualityChangePending
}

// Open reports whether the session still accepts commands.
func (s State) Open() bool {
	return s != Idle && s != Closed
}
