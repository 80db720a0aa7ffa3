package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazycrm/internal/catalog"
	"github.com/rebeliceyang/lazycrm/internal/models"
)

func TestNewPrinter_RejectsUnknownFormat(t *testing.T) {
	_, err := newPrinter("xml")
	assert.Error(t, err)
}

func TestPrintPage_Table(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{format: "table", w: &buf}
	page := &models.FilteredPage{
		Conversations: []models.Conversation{
			{ID: "c1", Name: "Contract review", Status: "open", UnreadCount: 2, Owner: &models.Contact{Name: "Ana Souza"}},
			{ID: "c2", Name: "Kickoff", Status: "closed"},
		},
		Total:       7,
		Approximate: true,
	}
	require.NoError(t, printPage(p, page))

	out := buf.String()
	assert.Contains(t, out, "CONVERSATION")
	assert.Contains(t, out, "Ana Souza")
	assert.Contains(t, out, "2 of ~7 conversations")
}

func TestPrintPage_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{format: "json", w: &buf}
	page := &models.FilteredPage{Conversations: []models.Conversation{{ID: "c1"}}, Total: 1}
	require.NoError(t, printPage(p, page))

	var decoded models.FilteredPage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Total)
	assert.Equal(t, "c1", decoded.Conversations[0].ID)
}

func TestOptionSummary(t *testing.T) {
	assert.Equal(t, "-", optionSummary(nil))
	opts := []models.Option{{Label: "A"}, {Label: "B"}, {Label: "C"}, {Label: "D"}, {Label: "E"}}
	assert.Equal(t, "A, B, C, +2", optionSummary(opts))
}

func TestDescribeState(t *testing.T) {
	fields, err := models.NewFieldCatalog(catalog.FixedFields())
	require.NoError(t, err)

	assert.Equal(t, "(no filters)", describeState(fields, models.FilterState{}))

	state := models.FilterState{Search: "souza"}
	state.SetRule(models.Rule{Field: "status", Operator: models.OpEquals, Value: models.Text("open")})
	got := describeState(fields, state)
	assert.True(t, strings.HasPrefix(got, `search "souza"; `), got)
	assert.Contains(t, got, "Conversation status")
}
