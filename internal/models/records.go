package models

import (
	"encoding/json"
	"time"
)

// Conversation is the primary record
type Conversation struct {
	ID              string     `json:"id"`
	ContactID       string     `json:"contact_id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	UnreadCount     int        `json:"unread_count"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	// Owner is attached client-side after the primary query
	Owner *Contact `json:"owner,omitempty"`
}

// HasUnread derives the unread state from the counter
func (c Conversation) HasUnread() bool {
	return c.UnreadCount > 0
}

// Contact is the owner record of a conversation
type Contact struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	ClientName        string     `json:"client_name"`
	ClientType        string     `json:"client_type"`
	ClientSize        string     `json:"client_size"`
	Status            string     `json:"status"`
	ConsultationStage string     `json:"consultation_stage"`
	KanbanStageID     string     `json:"kanban_stage_id"`
	Tags              []string   `json:"tags"`
	ResponsibleHosts  []string   `json:"responsible_hosts"`
	Budget            float64    `json:"budget"`
	Sales             float64    `json:"sales"`
	LastContact       *time.Time `json:"last_contact,omitempty"`
}

// CustomFieldDefinition declares one tenant custom field
type CustomFieldDefinition struct {
	ID        string          `json:"id"`
	Name      string          `json:"field_name"`
	Kind      FieldKind       `json:"field_type"`
	Options   json.RawMessage `json:"field_options,omitempty"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// CustomValue is one EAV row
type CustomValue struct {
	ContactID string          `json:"client_id"`
	FieldID   string          `json:"field_id"`
	Value     json.RawMessage `json:"field_value"`
}

// Profile labels an owner identifier
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
