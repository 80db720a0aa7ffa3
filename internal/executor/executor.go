// Package executor runs the final conversations query.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/idset"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// SentinelOwnerID never identifies a contact. Membership against it
// matches nothing.
var SentinelOwnerID = uuid.Nil.String()

// DefaultLimit is used when a request carries no limit
const DefaultLimit = 50

// sortable lists the columns a page may be ordered by
var sortable = map[string]bool{
	store.ColLastMessageTime: true,
	store.ColName:            true,
	store.ColStatus:          true,
	store.ColUnreadCount:     true,
}

// SortableColumns returns the accepted ordering columns
func SortableColumns() []string {
	return []string{store.ColLastMessageTime, store.ColName, store.ColStatus, store.ColUnreadCount}
}

// Request is one primary query
type Request struct {
	Tenant string
	Rules  []filter.Bound
	// Owners nil means unconstrained; an empty set matches nothing
	Owners *idset.Set
	Page   models.Pagination
	Order  models.Ordering
}

// QueryError is a failure of the primary query or the owner fetch
type QueryError struct {
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query on %s failed: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Executor fetches a page of conversations and attaches their owners
type Executor struct {
	store        store.Store
	timeout      time.Duration
	defaultLimit int
	logger       *logrus.Entry
}

// New creates an executor
func New(s store.Store, timeout time.Duration, defaultLimit int, logger *logrus.Entry) *Executor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Executor{
		store:        s,
		timeout:      timeout,
		defaultLimit: defaultLimit,
		logger:       logging.Component(logger, "executor"),
	}
}

// Query builds the primary query for req without running it
func (e *Executor) Query(req Request) (store.Query, error) {
	preds, err := filter.Predicates(req.Rules)
	if err != nil {
		return store.Query{}, err
	}
	where := append([]store.Predicate{store.Eq(store.ColUserID, req.Tenant)}, preds...)
	if p, ok := MembershipPredicate(req.Owners); ok {
		where = append(where, p)
	}

	order := req.Order
	if order.Field == "" {
		order = models.Ordering{Field: store.ColLastMessageTime, Descending: true}
	}
	if !sortable[order.Field] {
		return store.Query{}, &filter.ValidationError{
			Field: order.Field,
			Err:   fmt.Errorf("%w: cannot order by %s", filter.ErrUnsupportedOperator, order.Field),
		}
	}

	limit := req.Page.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}
	offset := req.Page.Offset
	if offset < 0 {
		offset = 0
	}

	return store.Query{
		Table:   store.TableConversations,
		Columns: store.ConversationColumns,
		Where:   where,
		OrderBy: []store.Order{
			{Column: order.Field, Descending: order.Descending},
			{Column: store.ColID},
		},
		Offset:     offset,
		Limit:      limit,
		CountTotal: true,
	}, nil
}

// MembershipPredicate translates an owner set. A nil set adds nothing;
// an empty set becomes membership against the sentinel id.
func MembershipPredicate(owners *idset.Set) (store.Predicate, bool) {
	if owners == nil {
		return store.Predicate{}, false
	}
	if owners.IsEmpty() {
		return store.In(store.ColContactID, []string{SentinelOwnerID}), true
	}
	return store.In(store.ColContactID, owners.Sorted()), true
}

// Execute runs the primary query and fetches the owners of the page
func (e *Executor) Execute(ctx context.Context, req Request) (*models.Page, error) {
	q, err := e.Query(req)
	if err != nil {
		return nil, err
	}

	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := e.store.Select(qctx, q)
	if err != nil {
		return nil, &QueryError{Table: q.Table, Err: err}
	}

	page := &models.Page{
		Conversations: make([]models.Conversation, 0, len(res.Rows)),
		Total:         res.Total,
		Offset:        q.Offset,
		Limit:         q.Limit,
		Queries:       1,
	}
	ownerIDs := idset.Empty()
	for _, row := range res.Rows {
		c := conversationFromRow(row)
		if c.ContactID != "" {
			ownerIDs.Add(c.ContactID)
		}
		page.Conversations = append(page.Conversations, c)
	}

	if ownerIDs.Len() > 0 {
		page.Queries++
		owners, err := e.fetchOwners(ctx, req.Tenant, ownerIDs.Sorted())
		if err != nil {
			return nil, err
		}
		for i := range page.Conversations {
			if owner, ok := owners[page.Conversations[i].ContactID]; ok {
				page.Conversations[i].Owner = owner
			}
		}
	}

	e.logger.WithFields(logrus.Fields{
		"rows":  len(page.Conversations),
		"total": page.Total,
	}).Debug("page fetched")
	return page, nil
}

// fetchOwners loads the contacts of a page in one membership query
func (e *Executor) fetchOwners(ctx context.Context, tenant string, ids []string) (map[string]*models.Contact, error) {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.store.Select(qctx, store.Query{
		Table:   store.TableContacts,
		Columns: store.ContactColumns,
		Where: []store.Predicate{
			store.Eq(store.ColUserID, tenant),
			store.In(store.ColID, ids),
		},
	})
	if err != nil {
		return nil, &QueryError{Table: store.TableContacts, Err: err}
	}
	out := make(map[string]*models.Contact, len(res.Rows))
	for _, row := range res.Rows {
		c := contactFromRow(row)
		out[c.ID] = &c
	}
	return out, nil
}

func conversationFromRow(row store.Row) models.Conversation {
	return models.Conversation{
		ID:              row.String(store.ColID),
		ContactID:       row.String(store.ColContactID),
		Name:            row.String(store.ColName),
		Status:          row.String(store.ColStatus),
		LastMessage:     row.String(store.ColLastMessage),
		LastMessageTime: row.Time(store.ColLastMessageTime),
		UnreadCount:     row.Int(store.ColUnreadCount),
		Phone:           row.String(store.ColPhone),
		Email:           row.String(store.ColEmail),
	}
}

func contactFromRow(row store.Row) models.Contact {
	return models.Contact{
		ID:                row.String(store.ColID),
		Name:              row.String(store.ColName),
		Email:             row.String(store.ColEmail),
		Phone:             row.String(store.ColPhone),
		ClientName:        row.String(store.ColClientName),
		ClientType:        row.String(store.ColClientType),
		ClientSize:        row.String(store.ColClientSize),
		Status:            row.String(store.ColStatus),
		ConsultationStage: row.String(store.ColConsultationStage),
		KanbanStageID:     row.String(store.ColKanbanStageID),
		Tags:              row.Strings(store.ColTags),
		ResponsibleHosts:  row.Strings(store.ColResponsibleHosts),
		Budget:            row.Float(store.ColBudget),
		Sales:             row.Float(store.ColSales),
		LastContact:       row.Time(store.ColLastContact),
	}
}
