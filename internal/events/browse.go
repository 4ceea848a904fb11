package events

// Event types.
const (
	EventSeasonSelected = "season.selected"
	EventScopeChanged   = "scope.changed"
)

// Entity types.
const (
	EntityTitle = "title"
)

// SeasonSelected is emitted when the active season of a title changes, either
// by the initial choice or by an explicit selection. Navigation state mirrors
// it with replace semantics.
type SeasonSelected struct {
	BaseEvent
	TitleID  string `json:"title_id"`
	Season   string `json:"season"`
	Previous string `json:"previous,omitempty"`
	Initial  bool   `json:"initial"`
}

// NewSeasonSelected creates a SeasonSelected event for titleID.
func NewSeasonSelected(titleID, season, previous string, initial bool) *SeasonSelected {
	return &SeasonSelected{
		BaseEvent: NewBaseEvent(EventSeasonSelected, EntityTitle, titleID),
		TitleID:   titleID,
		Season:    season,
		Previous:  previous,
		Initial:   initial,
	}
}

// ScopeChanged is emitted whenever a cache scope transitions state.
type ScopeChanged struct {
	BaseEvent
	TitleID string `json:"title_id"`
	Scope   string `json:"scope"`            // "detail", "seasons", "episodes"
	Season  string `json:"season,omitempty"` // episodes scope only
	Status  string `json:"status"`           // "idle", "loading", "ready", "failed"
	Error   string `json:"error,omitempty"`
}

// NewScopeChanged creates a ScopeChanged event for titleID.
func NewScopeChanged(titleID, scope, season, status, errMsg string) *ScopeChanged {
	return &ScopeChanged{
		BaseEvent: NewBaseEvent(EventScopeChanged, EntityTitle, titleID),
		TitleID:   titleID,
		Scope:     scope,
		Season:    season,
		Status:    status,
		Error:     errMsg,
	}
}
