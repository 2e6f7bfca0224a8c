package chunker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

func TestExtractEntityTable(t *testing.T) {
	chat := &fakeChat{respond: func(string) (string, error) {
		return `{"tenants": ["Starbucks Corp"], "buildings": ["123 Main St"], "leases": [], "brokers": []}`, nil
	}}

	table := NewEnricher(chat, 15, 1800).ExtractEntityTable(context.Background(), "lease text", 3)

	assert.Equal(t, []string{"Starbucks Corp"}, table.Tenants)
	assert.Equal(t, []string{"123 Main St"}, table.Buildings)
}

func TestExtractEntityTableSkippedForLargeDocuments(t *testing.T) {
	called := false
	chat := &fakeChat{respond: func(string) (string, error) {
		called = true
		return `{"tenants": ["Starbucks Corp"]}`, nil
	}}

	table := NewEnricher(chat, 15, 1800).ExtractEntityTable(context.Background(), "lease text", 16)

	assert.False(t, called)
	assert.Empty(t, table.Tenants)
}

func TestExtractEntityTableEmptyOnModelError(t *testing.T) {
	chat := &fakeChat{respond: func(string) (string, error) {
		return "", errors.New("upstream timeout")
	}}

	table := NewEnricher(chat, 15, 1800).ExtractEntityTable(context.Background(), "lease text", 3)
	assert.Empty(t, table.Tenants)
	assert.Empty(t, table.Buildings)
}

func TestEnrichTenantRecord(t *testing.T) {
	e := NewEnricher(nil, 15, 1800)
	raw := RawChunk{
		Text: "Tenant: Starbucks Corp\n" +
			"Building: North Tower\n" +
			"Address: 123 Main St, Suite 400\n" +
			"Rent: $5,000 per month under the current lease.\n" +
			"Space: 1,200 SF\n" +
			"Expiration: 12/31/2027",
		Hierarchy: []string{"Entry 1"},
	}
	table := EntityTable{Tenants: []string{"Starbucks Corp"}}

	c := e.Enrich(raw, 0, 3, StructureDescriptor{DocType: DocTypeTenantList}, table, Scope{CompanyID: "7"})

	assert.Equal(t, "Tenant: Starbucks Corp", c.ChunkTitle)
	assert.Equal(t, model.ChunkTypeTenantRecord, c.ChunkType)
	assert.Equal(t, "tenant", c.PrimaryEntityType)
	assert.Equal(t, "Starbucks Corp", c.PrimaryEntityValue)
	assert.Equal(t, DocTypeTenantList, c.DocType)
	assert.Equal(t, 0, c.ChunkIndex)
	assert.Equal(t, 3, c.TotalChunks)

	assert.Equal(t, "Starbucks Corp", c.SearchableFields.TenantName)
	assert.Equal(t, "North Tower", c.SearchableFields.Building)
	assert.Equal(t, "123 Main St, Suite 400", c.SearchableFields.Address)
	assert.Equal(t, "5,000", c.SearchableFields.Rent)
	assert.Equal(t, "1,200", c.SearchableFields.SquareFootage)
	assert.Equal(t, "12/31/2027", c.SearchableFields.LeaseEnd)
}

func TestEnrichFallsBackToRegexEntity(t *testing.T) {
	e := NewEnricher(nil, 15, 1800)
	raw := RawChunk{
		Text:      "Broker: Marcus Realty\nContact for all leasing inquiries at the downtown office.",
		Hierarchy: []string{"Entry 2"},
	}

	// Empty table forces the per-chunk regex path.
	c := e.Enrich(raw, 1, 2, StructureDescriptor{DocType: DocTypeContactDB}, EntityTable{}, Scope{})

	assert.Equal(t, "broker", c.PrimaryEntityType)
	assert.Equal(t, "Marcus Realty", c.PrimaryEntityValue)
}

func TestEnrichNoEntity(t *testing.T) {
	e := NewEnricher(nil, 15, 1800)
	raw := RawChunk{Text: "General market commentary without any named parties.", Hierarchy: []string{"Part 1"}}

	c := e.Enrich(raw, 0, 1, StructureDescriptor{DocType: DocTypeMarketReport}, EntityTable{}, Scope{})

	assert.Empty(t, c.PrimaryEntityType)
	assert.Empty(t, c.PrimaryEntityValue)
}

func TestInferTitleUsesHierarchyForLongFirstLine(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "verbose "
	}
	title := inferTitle(long, []string{"ARTICLE 2: RENT"})
	assert.Equal(t, "ARTICLE 2: RENT", title)
}

func TestInferTitleUntitled(t *testing.T) {
	assert.Equal(t, "Untitled Section", inferTitle("....", nil))
}

func TestInferChunkType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"tenant with rent", "The tenant shall pay rent monthly.", model.ChunkTypeTenantRecord},
		{"building record", "Building amenities include parking and a gym.", model.ChunkTypeBuildingRecord},
		{"document section", "Article 4 governs insurance obligations.", model.ChunkTypeDocumentSection},
		{"generic", "Quarterly vacancy trends remained flat.", model.ChunkTypeInformationBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferChunkType(tt.text))
		})
	}
}

func TestExtractTopics(t *testing.T) {
	text := "Lease terms cover the Downtown Business District. Rent and Parking are addressed. Rent again."
	topics := extractTopics(text)

	assert.Contains(t, topics, "Lease")
	assert.Contains(t, topics, "Downtown Business District")
	assert.LessOrEqual(t, len(topics), maxTopics)

	// Deduplicated.
	count := 0
	for _, topic := range topics {
		if topic == "Rent" {
			count++
		}
	}
	assert.LessOrEqual(t, count, 1)
}

func TestSummarizeCapsLength(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one too. Fourth never makes it. Fifth neither."
	s := summarize(text)

	require.NotEmpty(t, s)
	assert.LessOrEqual(t, len(s), maxSummary)
	assert.Contains(t, s, "First sentence here.")
	assert.NotContains(t, s, "Fourth")
}

func TestSummarizeTruncatesUnbrokenText(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "unbroken "
	}
	s := summarize(long)
	assert.True(t, len(s) <= 133)
	assert.Contains(t, s, "...")
}
