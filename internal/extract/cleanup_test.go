package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelyPersonName(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"Kerry Cheng", true},
		{"Mary Jane Watson", true},
		{"", false},
		{"One Two Three Four Five", false},
		{"Acme Technology Ltd", false},
		{"Wells Fargo Master Agreement", false},
		{"lowercase name", false},
		{"Lenovo NetApp Technology Ltd_PRC", false},
		{"OPP-123456", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isLikelyPersonName(tc.value), tc.value)
	}
}

func TestCleanEntityNameKeepsLoneTitle(t *testing.T) {
	lone := "Lenovo NetApp Technology Ltd_PRC Master Distribution Supplier Agreem"
	assert.Equal(t, lone, cleanEntityName(lone))
}

func TestCleanEntityNameCutsSecondTitle(t *testing.T) {
	glued := "Acme Inc_US Master Agreement 2023. Beta Technology Ltd_EU Supplier Agreement"
	assert.Equal(t, "Acme Inc_US Master Agreement 2023", cleanEntityName(glued))
}

func TestCleanEntityNameStripsDecoration(t *testing.T) {
	assert.Equal(t, "Acme Corp_US Distribution Agreement",
		cleanEntityName("Acme Corp_US Distribution Agreement✓✓"))
	assert.Equal(t, "Acme Corp_US Distribution Agreement",
		cleanEntityName("Contract Name: Acme Corp_US Distribution Agreement"))
	assert.Equal(t, "Acme Corp_US Distribution Agreement",
		cleanEntityName("Quote Information Acme Corp_US Distribution Agreement"))
}

func TestCleanEntityNameStopsAtNextField(t *testing.T) {
	v := cleanEntityName("Acme Corp_US Distribution Agreement Contract Start Date 01-Jan-2024")
	assert.Equal(t, "Acme Corp_US Distribution Agreement", v)

	v = cleanEntityName("Acme Corp_US Distribution Agreement Payment Terms Net 30")
	assert.Equal(t, "Acme Corp_US Distribution Agreement", v)
}

func TestCleanEntityNameCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "Acme Corp", cleanEntityName("  Acme   Corp  "))
	assert.Equal(t, "", cleanEntityName(""))
}
