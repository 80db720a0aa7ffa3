package memory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

var demoNamespace = uuid.MustParse("6f1c7c56-5a0e-4d0a-9d8e-2f3b7a1e9c44")

// DemoID derives a stable id for a seeded record
func DemoID(kind, name string) string {
	return uuid.NewSHA1(demoNamespace, []byte(kind+"/"+name)).String()
}

// DemoTenant is the tenant that owns the seeded data
var DemoTenant = DemoID("tenant", "demo")

type demoContact struct {
	name     string
	client   string
	kind     string
	size     string
	status   string
	stage    string
	tags     []string
	hosts    []string
	budget   float64
	industry []string
	source   string
}

var demoContacts = []demoContact{
	{"Ana Souza", "Souza Advocacia", "pj", "small", "active", "proposal", []string{"vip"}, []string{"host-maria"}, 12000, []string{"Legal"}, "Referral"},
	{"Bruno Lima", "Lima Tech", "pj", "medium", "active", "negotiation", []string{"vip", "renewal"}, []string{"host-joao"}, 45000, []string{"Tech"}, "Inbound"},
	{"Carla Mendes", "", "pf", "", "lead", "new", []string{"newsletter"}, []string{"host-maria"}, 0, []string{"Legal"}, "Event"},
	{"Diego Alves", "Alves Retail", "pj", "large", "active", "won", []string{"vip"}, []string{"host-ana", "host-joao"}, 98000, []string{"Retail"}, "Inbound"},
	{"Elisa Rocha", "Rocha & Filhos", "pj", "small", "inactive", "lost", nil, nil, 3000, []string{"Legal", "Health"}, "Referral"},
	{"Fabio Nunes", "", "pf", "", "lead", "qualified", []string{"webinar"}, []string{"host-ana"}, 500, nil, "Event"},
	{"Gabriela Costa", "Costa Health", "pj", "medium", "active", "proposal", []string{"vip"}, []string{"host-maria"}, 27000, []string{"Health", "Tech"}, "Inbound"},
	{"Henrique Dias", "Dias Labs", "pj", "enterprise", "active", "negotiation", []string{"renewal"}, []string{"host-joao"}, 150000, []string{"Tech"}, ""},
}

type demoConversation struct {
	contact string
	name    string
	status  string
	last    string
	ago     time.Duration
	unread  int
}

var demoConversations = []demoConversation{
	{"Ana Souza", "Contract review", "open", "Can we move the signing to Friday?", 2 * time.Hour, 2},
	{"Ana Souza", "Invoice question", "closed", "Thanks, all clear.", 72 * time.Hour, 0},
	{"Bruno Lima", "Renewal 2025", "open", "Sending the new proposal today", 30 * time.Minute, 1},
	{"Carla Mendes", "First contact", "pending", "Hi! I saw your talk at the event", 5 * time.Hour, 3},
	{"Diego Alves", "Rollout", "open", "Stores 4 to 9 are live", 26 * time.Hour, 0},
	{"Diego Alves", "Support", "open", "POS terminal keeps rebooting", 10 * time.Minute, 4},
	{"Elisa Rocha", "Follow-up", "closed", "We decided to wait until next year", 400 * time.Hour, 0},
	{"Fabio Nunes", "Webinar", "pending", "Is there a recording?", 50 * time.Hour, 1},
	{"Gabriela Costa", "Pilot", "open", "The clinic team loved the demo", 3 * time.Hour, 0},
	{"Henrique Dias", "Security review", "open", "Attached our vendor questionnaire", 8 * time.Hour, 2},
	{"Henrique Dias", "Kickoff", "closed", "", 0, 0},
}

var demoHosts = map[string]string{
	"host-maria": "Maria Oliveira",
	"host-joao":  "Joao Pereira",
	"host-ana":   "Ana Martins",
}

// demoStages are the kanban columns, in board order
var demoStages = []struct{ key, title string }{
	{"new", "New"},
	{"qualified", "Qualified"},
	{"proposal", "Proposal sent"},
	{"negotiation", "Negotiation"},
	{"won", "Won"},
	{"lost", "Lost"},
}

// NewDemo builds a store seeded with a small CRM for tenant
func NewDemo(tenant string, now time.Time) *Store {
	s := New()
	Seed(s, tenant, now)
	return s
}

// Seed inserts the demo dataset for tenant. Conversation times are
// relative to now so the recent/older windows have members.
func Seed(s *Store, tenant string, now time.Time) {
	industry := DemoID("field", "industry")
	source := DemoID("field", "source")
	notes := DemoID("field", "notes")
	legacy := DemoID("field", "legacy")

	s.Insert(store.TableCustomFields,
		customField(tenant, industry, "Industry", "multi_select", []string{"Legal", "Tech", "Retail", "Health"}, "commercial", now.Add(-90*24*time.Hour), nil),
		customField(tenant, source, "Source", "single_select", []string{"Inbound", "Referral", "Event"}, "basic", now.Add(-80*24*time.Hour), nil),
		customField(tenant, notes, "Notes", "text", nil, "basic", now.Add(-70*24*time.Hour), nil),
		customField(tenant, legacy, "Legacy Score", "single_select", []string{"A", "B"}, "basic", now.Add(-100*24*time.Hour), &now),
	)

	for id, name := range demoHosts {
		s.Insert(store.TableProfiles, store.Row{
			store.ColID:          id,
			store.ColDisplayName: name,
		})
	}

	for i, st := range demoStages {
		s.Insert(store.TableKanbanStages, store.Row{
			store.ColID:       DemoID("stage", st.key),
			store.ColUserID:   tenant,
			store.ColTitle:    st.title,
			store.ColOrdering: i,
		})
	}

	for i, c := range demoContacts {
		id := DemoID("contact", c.name)
		lastContact := now.Add(-time.Duration(i+1) * 24 * time.Hour)
		s.Insert(store.TableContacts, store.Row{
			store.ColID:                id,
			store.ColUserID:            tenant,
			store.ColName:              c.name,
			store.ColEmail:             emailFor(c.name),
			store.ColPhone:             "+55 11 9000-000" + string(rune('0'+i)),
			store.ColClientName:        c.client,
			store.ColClientType:        c.kind,
			store.ColClientSize:        c.size,
			store.ColStatus:            c.status,
			store.ColConsultationStage: c.stage,
			store.ColKanbanStageID:     DemoID("stage", c.stage),
			store.ColTags:              nonNil(c.tags),
			store.ColResponsibleHosts:  nonNil(c.hosts),
			store.ColBudget:            c.budget,
			store.ColSales:             c.budget / 2,
			store.ColLastContact:       lastContact,
			store.ColDeletedAt:         nil,
		})
		if len(c.industry) > 0 {
			s.Insert(store.TableCustomValues, customValue(id, industry, c.industry))
		}
		if c.source != "" {
			s.Insert(store.TableCustomValues, customValue(id, source, c.source))
		}
		s.Insert(store.TableCustomValues, customValue(id, legacy, "A"))
	}

	// A soft-deleted contact never shows up in filters
	deleted := DemoID("contact", "Removed Customer")
	s.Insert(store.TableContacts, store.Row{
		store.ColID:        deleted,
		store.ColUserID:    tenant,
		store.ColName:      "Removed Customer",
		store.ColStatus:    "inactive",
		store.ColTags:      []string{"vip"},
		store.ColDeletedAt: now.Add(-24 * time.Hour),
	})
	s.Insert(store.TableCustomValues, customValue(deleted, industry, []string{"Legal"}))

	for i, c := range demoConversations {
		contact := DemoID("contact", c.contact)
		var last any
		if c.ago > 0 {
			last = now.Add(-c.ago)
		}
		s.Insert(store.TableConversations, store.Row{
			store.ColID:              DemoID("conversation", c.contact+"/"+c.name),
			store.ColUserID:          tenant,
			store.ColContactID:       contact,
			store.ColName:            c.name,
			store.ColStatus:          c.status,
			store.ColLastMessage:     c.last,
			store.ColLastMessageTime: last,
			store.ColUnreadCount:     c.unread,
			store.ColPhone:           "+55 11 9000-100" + string(rune('0'+i%10)),
			store.ColEmail:           emailFor(c.contact),
		})
	}
}

func customField(tenant, id, name, kind string, options []string, category string, created time.Time, deleted *time.Time) store.Row {
	var opts json.RawMessage
	if options != nil {
		opts, _ = json.Marshal(options)
	}
	var deletedAt any
	if deleted != nil {
		deletedAt = *deleted
	}
	return store.Row{
		store.ColID:           id,
		store.ColUserID:       tenant,
		store.ColFieldName:    name,
		store.ColFieldType:    kind,
		store.ColFieldOptions: opts,
		store.ColCategory:     category,
		store.ColCreatedAt:    created,
		store.ColDeletedAt:    deletedAt,
	}
}

func customValue(contact, field string, value any) store.Row {
	raw, _ := json.Marshal(value)
	return store.Row{
		store.ColClientID:   contact,
		store.ColFieldID:    field,
		store.ColFieldValue: json.RawMessage(raw),
	}
}

func emailFor(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r == ' ':
			out = append(out, '.')
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, r)
		}
	}
	return string(out) + "@example.com"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
