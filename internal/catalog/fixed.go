package catalog

import (
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// ConsultationStages are the lifecycle stages offered before discovery
var ConsultationStages = []string{
	"new", "qualified", "call_scheduled", "proposal",
	"negotiation", "invoice_sent", "won", "lost",
}

// ClientSizes are the sizes offered for client_size
var ClientSizes = []string{"small", "medium", "large", "enterprise"}

// ConversationStatuses are the statuses a conversation can take
var ConversationStatuses = []string{"open", "pending", "closed"}

// ClientStatuses are the statuses a contact can take
var ClientStatuses = []string{"active", "inactive", "lead"}

func options(values ...string) []models.Option {
	out := make([]models.Option, len(values))
	for i, v := range values {
		out[i] = models.Option{Value: v, Label: v}
	}
	return out
}

// FixedFields returns the statically declared fields: conversation natives
// first, then contact columns. The contact status column is keyed
// client_status so it does not collide with the conversation status.
func FixedFields() []models.Field {
	primary := func(id, name string, kind models.FieldKind, category string, opts []models.Option) models.Field {
		return models.Field{ID: id, Name: name, Kind: kind, Category: category, Options: opts, Target: models.TargetPrimary, Column: id}
	}
	owner := func(id, column, name string, kind models.FieldKind, category string, opts []models.Option) models.Field {
		return models.Field{ID: id, Name: name, Kind: kind, Category: category, Options: opts, Target: models.TargetOwnerFixed, Column: column}
	}

	fields := []models.Field{
		primary(store.ColStatus, "Conversation status", models.FieldSingleSelect, models.CategoryConversation, options(ConversationStatuses...)),
		primary(store.ColUnreadCount, "Unread messages", models.FieldNumber, models.CategoryConversation, nil),
		primary(store.ColLastMessageTime, "Last message", models.FieldDate, models.CategoryTemporal, nil),

		owner(store.ColName, store.ColName, "Name", models.FieldText, models.CategoryBasic, nil),
		owner(store.ColEmail, store.ColEmail, "Email", models.FieldText, models.CategoryBasic, nil),
		owner(store.ColPhone, store.ColPhone, "Phone", models.FieldText, models.CategoryBasic, nil),

		owner(store.ColKanbanStageID, store.ColKanbanStageID, "Kanban stage", models.FieldSingleSelect, models.CategoryKanban, nil),
		owner(store.ColConsultationStage, store.ColConsultationStage, "Consultation stage", models.FieldSingleSelect, models.CategoryKanban, options(ConsultationStages...)),
		owner(store.ColTags, store.ColTags, "Tags", models.FieldMultiSelect, models.CategoryKanban, nil),
		owner(store.ColResponsibleHosts, store.ColResponsibleHosts, "Responsible", models.FieldMultiSelect, models.CategoryKanban, nil),

		owner(store.ColClientName, store.ColClientName, "Client name", models.FieldText, models.CategoryCommercial, nil),
		owner(store.ColClientSize, store.ColClientSize, "Client size", models.FieldSingleSelect, models.CategoryCommercial, options(ClientSizes...)),
		owner(store.ColClientType, store.ColClientType, "Client type", models.FieldText, models.CategoryCommercial, nil),
		owner(store.ColSales, store.ColSales, "Sales", models.FieldNumber, models.CategoryCommercial, nil),
		owner(store.ColBudget, store.ColBudget, "Budget", models.FieldNumber, models.CategoryCommercial, nil),
		owner("client_status", store.ColStatus, "Client status", models.FieldSingleSelect, models.CategoryCommercial, options(ClientStatuses...)),

		owner(store.ColLastContact, store.ColLastContact, "Last contact", models.FieldDate, models.CategoryTemporal, nil),
	}
	for i := range fields {
		if fields[i].ID == store.ColTags || fields[i].ID == store.ColResponsibleHosts {
			fields[i].MultiValued = true
		}
	}
	return fields
}
