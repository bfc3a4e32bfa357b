package cities

// Record is one city as listed by the upstream collection.
// Records carry no identity of their own; position in the collection is
// what views key on, and duplicates across pages are kept as-is.
type Record struct {
	Name       string `json:"name"`
	Country    string `json:"country"`
	Population int64  `json:"population"`
	Timezone   string `json:"timezone,omitempty"`
}

// Phase is the coarse state of a Store.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// State is a point-in-time copy of a Store's collection.
type State struct {
	Records []Record `json:"records"`
	HasMore bool     `json:"hasMore"`
	Cursor  int      `json:"cursor"`
	Loading bool     `json:"loading"`
	Err     string   `json:"error,omitempty"`
	Phase   Phase    `json:"phase"`
}

// View is what a list view renders: the filtered records plus the flags of
// the underlying collection.
type View struct {
	Records []Record
	Total   int
	Search  string
	HasMore bool
	Loading bool
	Err     string
	Phase   Phase
}
