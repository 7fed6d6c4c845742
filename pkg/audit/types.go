package audit

import "time"

// EventType categorizes an audit entry.
type EventType string

const (
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthTokenCreate EventType = "auth.token_create"
	EventTypeAuthTokenRevoke EventType = "auth.token_revoke"

	EventTypeAuthzGrantChange  EventType = "authz.grant_change"
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	EventTypeDataCreate EventType = "data.create"
	EventTypeDataUpdate EventType = "data.update"
	EventTypeDataDelete EventType = "data.delete"

	EventTypeAdminUserCreate     EventType = "admin.user_create"
	EventTypeAdminUserDeactivate EventType = "admin.user_deactivate"
)

// EventStatus is the outcome of the logged action.
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType names what the action touched.
type ResourceType string

const (
	ResourceTypeUser       ResourceType = "user"
	ResourceTypeToken      ResourceType = "token"
	ResourceTypeGrant      ResourceType = "grant"
	ResourceTypeClient     ResourceType = "client"
	ResourceTypeOnboarding ResourceType = "onboarding"
	ResourceTypeTask       ResourceType = "task"
	ResourceTypeInvoice    ResourceType = "invoice"
	ResourceTypeDocument   ResourceType = "document"
)

// Event is a single audit log entry.
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"eventType"`
	Status    EventStatus `json:"status"`

	UserID   string `json:"userId,omitempty"`
	ClientID string `json:"clientId,omitempty"`

	ResourceType ResourceType `json:"resourceType,omitempty"`
	ResourceID   string       `json:"resourceId,omitempty"`

	IPAddress  string `json:"ipAddress,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SearchFilter narrows Search results.
type SearchFilter struct {
	StartTime    *time.Time
	EndTime      *time.Time
	UserID       string
	EventType    EventType
	Status       EventStatus
	ResourceType ResourceType
	ResourceID   string
	Limit        int
	Offset       int
}
