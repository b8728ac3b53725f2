package webhook

import (
	"encoding/json"
	"strings"
)

// EventType names a Notion page or database lifecycle event.
type EventType string

// Event types delivered by Notion, plus the Wildcard that matches all of them.
const (
	PageCreated               EventType = "page.created"
	PageContentUpdated        EventType = "page.content_updated"
	PagePropertiesUpdated     EventType = "page.properties_updated"
	PageDeleted               EventType = "page.deleted"
	PageRestored              EventType = "page.restored"
	PageMoved                 EventType = "page.moved"
	PageLocked                EventType = "page.locked"
	PageUnlocked              EventType = "page.unlocked"
	DatabaseCreated           EventType = "database.created"
	DatabaseContentUpdated    EventType = "database.content_updated"
	DatabasePropertiesUpdated EventType = "database.properties_updated"
	DatabaseDeleted           EventType = "database.deleted"
	DatabaseRestored          EventType = "database.restored"
	DatabaseMoved             EventType = "database.moved"
	Wildcard                  EventType = "*"
)

var knownEvents = map[EventType]struct{}{
	PageCreated: {}, PageContentUpdated: {}, PagePropertiesUpdated: {}, PageDeleted: {},
	PageRestored: {}, PageMoved: {}, PageLocked: {}, PageUnlocked: {},
	DatabaseCreated: {}, DatabaseContentUpdated: {}, DatabasePropertiesUpdated: {},
	DatabaseDeleted: {}, DatabaseRestored: {}, DatabaseMoved: {},
}

// Known reports whether t is one of the documented event types.
func (t EventType) Known() bool {
	_, ok := knownEvents[t]
	return ok
}

// IsPage reports whether t concerns a page.
func (t EventType) IsPage() bool {
	return strings.HasPrefix(string(t), "page.")
}

// IsDatabase reports whether t concerns a database.
func (t EventType) IsDatabase() bool {
	return strings.HasPrefix(string(t), "database.")
}

// Event is one webhook event as delivered by Notion.
type Event struct {
	Data        EventData `json:"data"`
	Type        EventType `json:"type"`
	Timestamp   string    `json:"timestamp"`
	WorkspaceID string    `json:"workspace_id"`
}

// EventData identifies the object an event refers to.
type EventData struct {
	Parent     *Parent `json:"parent,omitempty"`
	PageID     string  `json:"page_id,omitempty"`
	DatabaseID string  `json:"database_id,omitempty"`
}

// Parent is the container of the object an event refers to.
type Parent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

const (
	payloadURLVerification = "url_verification"
	payloadEvent           = "event"
)

type payload struct {
	Event             *Event `json:"event,omitempty"`
	Type              string `json:"type"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// Response is the status and JSON body a webhook request is answered with.
type Response struct {
	Body   any
	Status int
}

// MarshalBody encodes the response body.
func (r Response) MarshalBody() ([]byte, error) {
	return json.Marshal(r.Body)
}
