package browser

// TabState is the load state of one (index, view) slot.
type TabState int

const (
	TabUnloaded TabState = iota
	TabLoading
	TabReady
	TabError
)

// String returns the state name for status lines and tests.
func (t TabState) String() string {
	switch t {
	case TabUnloaded:
		return "unloaded"
	case TabLoading:
		return "loading"
	case TabReady:
		return "ready"
	case TabError:
		return "error"
	default:
		return "unknown"
	}
}

// tabSlot tracks one (index, view) pair: its state machine position,
// the last error message, and the sequence number of the newest fetch
// issued for it. A completion whose sequence is older than lastSeq was
// superseded and is discarded without touching the cache.
type tabSlot struct {
	state   TabState
	errMsg  string
	lastSeq uint64
}

// TabController holds the per-slot state machines. Transitions are
// driven by Session; the controller only records and guards them.
type TabController struct {
	slots map[slotKey]tabSlot
}

// NewTabController returns a controller with every slot Unloaded.
func NewTabController() *TabController {
	return &TabController{slots: make(map[slotKey]tabSlot)}
}

// State returns the slot's current state; absent slots are Unloaded.
func (t *TabController) State(resource string, view ViewID) TabState {
	return t.slots[slotKey{resource, view}].state
}

// ErrMsg returns the last recorded error message for the slot.
func (t *TabController) ErrMsg(resource string, view ViewID) string {
	return t.slots[slotKey{resource, view}].errMsg
}

// beginFetch moves the slot to Loading and records seq as the newest
// in-flight fetch, superseding any earlier one still outstanding.
func (t *TabController) beginFetch(resource string, view ViewID, seq uint64) {
	key := slotKey{resource, view}
	s := t.slots[key]
	s.state = TabLoading
	s.errMsg = ""
	s.lastSeq = seq
	t.slots[key] = s
}

// current reports whether seq is still the newest fetch for the slot.
func (t *TabController) current(resource string, view ViewID, seq uint64) bool {
	return t.slots[slotKey{resource, view}].lastSeq == seq
}

// complete moves the slot to Ready (err == "") or Error. The caller
// must have checked current() first.
func (t *TabController) complete(resource string, view ViewID, errMsg string) {
	key := slotKey{resource, view}
	s := t.slots[key]
	if errMsg == "" {
		s.state = TabReady
		s.errMsg = ""
	} else {
		s.state = TabError
		s.errMsg = errMsg
	}
	t.slots[key] = s
}

// markReady records a slot as Ready without a fetch, used when a cached
// entry satisfies an activation.
func (t *TabController) markReady(resource string, view ViewID) {
	key := slotKey{resource, view}
	s := t.slots[key]
	s.state = TabReady
	s.errMsg = ""
	t.slots[key] = s
}

// dropResource forgets all slots of a deleted index.
func (t *TabController) dropResource(resource string) {
	for _, v := range Views {
		delete(t.slots, slotKey{resource, v})
	}
}
