package store

// Tables
const (
	TableConversations = "conversations"
	TableContacts      = "contacts"
	TableCustomFields  = "custom_fields"
	TableCustomValues  = "client_custom_values"
	TableProfiles      = "profiles"
	TableKanbanStages  = "kanban_stages"
)

// Shared columns
const (
	ColID        = "id"
	ColUserID    = "user_id"
	ColDeletedAt = "deleted_at"
)

// conversations
const (
	ColContactID       = "contact_id"
	ColName            = "name"
	ColStatus          = "status"
	ColLastMessage     = "last_message"
	ColLastMessageTime = "last_message_time"
	ColUnreadCount     = "unread_count"
	ColPhone           = "phone"
	ColEmail           = "email"
)

// contacts
const (
	ColClientName        = "client_name"
	ColClientType        = "client_type"
	ColClientSize        = "client_size"
	ColConsultationStage = "consultation_stage"
	ColKanbanStageID     = "kanban_stage_id"
	ColTags              = "tags"
	ColResponsibleHosts  = "responsible_hosts"
	ColBudget            = "budget"
	ColSales             = "sales"
	ColLastContact       = "last_contact"
)

// custom_fields
const (
	ColFieldName    = "field_name"
	ColFieldType    = "field_type"
	ColFieldOptions = "field_options"
	ColCategory     = "category"
	ColCreatedAt    = "created_at"
)

// client_custom_values
const (
	ColClientID   = "client_id"
	ColFieldID    = "field_id"
	ColFieldValue = "field_value"
)

// profiles
const (
	ColDisplayName = "display_name"
)

// kanban_stages
const (
	ColTitle    = "title"
	ColOrdering = "ordering"
)

// ConversationColumns are selected for every primary query
var ConversationColumns = []string{
	ColID, ColContactID, ColName, ColStatus, ColLastMessage,
	ColLastMessageTime, ColUnreadCount, ColPhone, ColEmail,
}

// ContactColumns are selected when owners are attached to a page
var ContactColumns = []string{
	ColID, ColName, ColEmail, ColPhone, ColClientName, ColClientType,
	ColClientSize, ColStatus, ColConsultationStage, ColKanbanStageID,
	ColTags, ColResponsibleHosts, ColBudget, ColSales, ColLastContact,
}
