package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
)

func TestMatchLabelExact(t *testing.T) {
	score, label := matchLabel("Quote Number:", []string{"quote number"})
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "quote number", label)

	// underscores read as spaces, trailing colons and spaces are ignored
	score, _ = matchLabel("quote_number : ", []string{"quote number"})
	assert.Equal(t, 1.0, score)

	// label-side colons are ignored too
	score, _ = matchLabel("incoterm", []string{"incoterm:"})
	assert.Equal(t, 1.0, score)
}

func TestMatchLabelFuzzy(t *testing.T) {
	score, label := matchLabel("Quote Numbr", []string{"quote number"})
	assert.Equal(t, "quote number", label)
	assert.InDelta(t, 22.0/23.0, score, 1e-9)

	score, label = matchLabel("zzz", []string{"quote number"})
	assert.Equal(t, 0.0, score)
	assert.Equal(t, "", label)

	// empty labels are skipped rather than matched
	score, _ = matchLabel("anything", []string{"", ":"})
	assert.Equal(t, 0.0, score)
}

func TestLocateAnchorsOnLabel(t *testing.T) {
	doc := &grid.Document{Tables: []grid.Table{{Cells: [][]string{
		{"Quote Information", "", ""},
		{"Quote Number:", "174044", ""},
		{"Payment Terms:", "Net 30", ""},
	}}}}
	spec := model.FieldSpec{
		Name:           "quoteNumber_t_c",
		Labels:         []string{"quote number"},
		Kind:           model.KindString,
		AdjacentSearch: true,
	}

	value, ref, score := locate(doc, spec)
	assert.Equal(t, "174044", value)
	assert.Equal(t, "T1!A2", ref)
	assert.Equal(t, 1.0, score)
}

func TestLocateFirstHitWinsTies(t *testing.T) {
	doc := &grid.Document{Tables: []grid.Table{
		{Cells: [][]string{{"Status:", "Approved"}}},
		{Cells: [][]string{{"Status:", "Draft"}}},
	}}
	spec := model.FieldSpec{
		Name:           "status_t",
		Labels:         []string{"status"},
		AdjacentSearch: true,
	}

	value, ref, _ := locate(doc, spec)
	assert.Equal(t, "Approved", value)
	assert.Equal(t, "T1!A1", ref)
}

func TestLocateHonorsThreshold(t *testing.T) {
	doc := &grid.Document{Tables: []grid.Table{{Cells: [][]string{
		{"Stat", "Approved"},
	}}}}
	spec := model.FieldSpec{
		Name:           "status_t",
		Labels:         []string{"status"},
		AdjacentSearch: true,
		MatchThreshold: 0.9,
	}

	value, _, score := locate(doc, spec)
	assert.Equal(t, "", value)
	assert.Equal(t, 0.0, score)
}

func TestLocateEntityCandidateOverride(t *testing.T) {
	title := "Lenovo NetApp Technology Ltd_PRC Master Distribution Supplier Agreem"
	doc := &grid.Document{Tables: []grid.Table{{Cells: [][]string{
		{"Contract Name:", "", "Kerry Cheng", title},
	}}}}
	spec := model.FieldSpec{
		Name:           "contractName_t",
		Labels:         []string{"contract name", "agreement name"},
		Kind:           model.KindString,
		AdjacentSearch: true,
		MultiCell:      true,
		MatchThreshold: 0.75,
	}

	// The direct collection hits the salesperson's name, which is rejected;
	// the entity-shaped cell further along the row wins instead.
	value, ref, score := locate(doc, spec)
	assert.Equal(t, title, value)
	assert.Equal(t, "T1!D1", ref)
	assert.InDelta(t, 1.2, score, 1e-9)
}

func TestLocateEntitySkipsPersonBesideLabel(t *testing.T) {
	doc := &grid.Document{Tables: []grid.Table{{Cells: [][]string{
		{"Contract Name:", "Kerry Cheng"},
	}}}}
	spec := model.FieldSpec{
		Name:           "contractName_t",
		Labels:         []string{"contract name", "agreement name"},
		AdjacentSearch: true,
		MultiCell:      true,
		MatchThreshold: 0.75,
	}

	value, _, _ := locate(doc, spec)
	assert.Equal(t, "", value)
}

func TestLocateEntitySkipsBareHeaders(t *testing.T) {
	doc := &grid.Document{Tables: []grid.Table{{Cells: [][]string{
		{"Contract Name", "whatever"},
		{"Contract Start Date:", "01-Jan-2024"},
	}}}}
	spec := model.FieldSpec{
		Name:           "contractName_t",
		Labels:         []string{"contract name", "agreement name"},
		AdjacentSearch: true,
		MultiCell:      true,
		MatchThreshold: 0.75,
	}

	value, _, _ := locate(doc, spec)
	assert.Equal(t, "", value)
}
