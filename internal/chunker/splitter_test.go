package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hierarchicalDoc() string {
	return strings.Join([]string{
		"ARTICLE 1: PARTIES",
		"This lease agreement is entered into between the landlord and the tenant, " +
			"covering the premises described in the attached exhibit for the full term.",
		"",
		"ARTICLE 2: RENT",
		"The tenant shall pay base rent of $5,000/month, due on the first day of each " +
			"calendar month, without deduction or setoff of any kind whatsoever.",
		"",
		"ARTICLE 3: TERM",
		"The initial term of this lease is sixty months, commencing on the commencement " +
			"date and expiring at midnight on the final day of the sixtieth month.",
	}, "\n")
}

func TestSplitBySectionsHierarchical(t *testing.T) {
	s := NewSplitter(1200, 100)
	desc := StructureDescriptor{
		StructurePattern: PatternHierarchical,
		SectionMarkers:   []string{"Article"},
	}

	chunks := s.Split(hierarchicalDoc(), desc)
	require.Len(t, chunks, 3)

	assert.Equal(t, "ARTICLE 1: PARTIES", chunks[0].Hierarchy[0])
	assert.Equal(t, "ARTICLE 2: RENT", chunks[1].Hierarchy[0])
	assert.Equal(t, "ARTICLE 3: TERM", chunks[2].Hierarchy[0])
	assert.Contains(t, chunks[1].Text, "$5,000/month")
}

func TestSplitBySectionsDropsShortSections(t *testing.T) {
	s := NewSplitter(1200, 100)
	text := "Section 1: Short\ntiny\n\nSection 2: Long\n" + strings.Repeat("body text ", 20)

	chunks := s.Split(text, StructureDescriptor{
		StructurePattern: PatternHierarchical,
		SectionMarkers:   []string{"Section"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "Section 2: Long", chunks[0].Hierarchy[0])
}

func TestSplitBySectionsTruncatesLongTitles(t *testing.T) {
	s := NewSplitter(1200, 100)
	longHeading := "Section 1: " + strings.Repeat("x", 200)
	text := longHeading + "\n" + strings.Repeat("body ", 40)

	chunks := s.Split(text, StructureDescriptor{
		StructurePattern: PatternHierarchical,
		SectionMarkers:   []string{"Section"},
	})

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Hierarchy[0], 100)
}

func TestSplitBySeparators(t *testing.T) {
	s := NewSplitter(1200, 100)

	var b strings.Builder
	b.WriteString("TENANT ROSTER FOR 123 MAIN ST\n\n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, "Tenant: Company %d\n", i)
		b.WriteString("Rent: $4,000 per month with annual escalations per the master schedule. ")
		b.WriteString("Lease runs through the end of the decade with two renewal options.\n\n")
	}

	chunks := s.Split(b.String(), StructureDescriptor{
		StructurePattern: PatternRepeatedEntries,
		EntrySeparators:  []string{"Tenant:"},
	})

	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("Entry %d", i+1), c.Hierarchy[0])
		assert.Contains(t, c.Text, fmt.Sprintf("Company %d", i+1))
	}
}

func TestSplitBySeparatorsDropsDocumentHeader(t *testing.T) {
	s := NewSplitter(1200, 100)

	// The first separator block opens the document, so it reads as a header.
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, "Tenant: Company %d\n", i)
		b.WriteString("Rent: $4,000 per month with annual escalations per the master schedule. ")
		b.WriteString("Lease runs through the end of the decade with two renewal options.\n\n")
	}

	chunks := s.Split(b.String(), StructureDescriptor{
		StructurePattern: PatternRepeatedEntries,
		EntrySeparators:  []string{"Tenant:"},
	})

	require.Len(t, chunks, 3)
	assert.Equal(t, "Entry 1", chunks[0].Hierarchy[0])
	assert.Contains(t, chunks[0].Text, "Company 2")
}

func TestSplitBySeparatorsRequiresMoreThanTwoMatches(t *testing.T) {
	s := NewSplitter(1200, 100)
	text := "Tenant: A\n" + strings.Repeat("details ", 20) + "\nTenant: B\n" + strings.Repeat("details ", 20)

	chunks := s.Split(text, StructureDescriptor{
		StructurePattern: PatternRepeatedEntries,
		EntrySeparators:  []string{"Tenant:"},
	})

	// Two matches do not qualify; semantic splitting takes over.
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Part 1", chunks[0].Hierarchy[0])
}

func TestSplitTabular(t *testing.T) {
	s := NewSplitter(1200, 100)
	text := strings.Join([]string{
		"Tenant\tRent\tSF",
		"Starbucks\t5000\t1200 plus common area maintenance charges billed monthly",
		"Chipotle\t4200\t950 plus common area maintenance charges billed monthly",
		"",
		"Bluebird Cafe\t3100\t800 plus common area maintenance charges billed monthly",
		"Iron Gym\t8000\t4500 plus common area maintenance charges billed monthly",
	}, "\n")

	chunks := s.Split(text, StructureDescriptor{StructurePattern: PatternTabular})
	require.Len(t, chunks, 2)

	// Header line is prefixed to every row-group.
	assert.True(t, strings.HasPrefix(chunks[0].Text, "Tenant\tRent\tSF"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "Tenant\tRent\tSF"))
	assert.Contains(t, chunks[0].Text, "Starbucks")
	assert.Contains(t, chunks[1].Text, "Iron Gym")
	assert.Equal(t, "Table 1", chunks[0].Hierarchy[0])
}

func TestSplitTabularFallsBackToSemantic(t *testing.T) {
	s := NewSplitter(1200, 100)
	text := "Plain narrative with no rows at all. " + strings.Repeat("More prose. ", 10)

	chunks := s.Split(text, StructureDescriptor{StructurePattern: PatternTabular})
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Part 1", chunks[0].Hierarchy[0])
}

func TestSplitSemanticPacksParagraphs(t *testing.T) {
	s := NewSplitter(1200, 100)

	para := strings.Repeat("Lorem ipsum dolor sit amet. ", 20) // ~560 chars
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	chunks := s.Split(text, StructureDescriptor{StructurePattern: PatternNarrative})
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("Part %d", i+1), c.Hierarchy[0])
		assert.NotEmpty(t, c.Text)
	}
}

func TestSplitSemanticOverlapSeedsNextChunk(t *testing.T) {
	s := NewSplitter(300, 50)

	first := strings.Repeat("alpha ", 40)  // ~240 chars
	second := strings.Repeat("omega ", 40) // forces a new chunk
	chunks := s.Split(first+"\n\n"+second, StructureDescriptor{StructurePattern: PatternNarrative})

	require.GreaterOrEqual(t, len(chunks), 2)
	// Second chunk starts with the tail of the paragraph that closed the first.
	assert.Contains(t, chunks[1].Text, "alpha")
	assert.Contains(t, chunks[1].Text, "omega")
}

func TestSplitFullDocumentFallback(t *testing.T) {
	s := NewSplitter(1200, 100)

	// Too short for any section to pass the length gate.
	chunks := s.Split("short note", StructureDescriptor{
		StructurePattern: PatternHierarchical,
		SectionMarkers:   []string{"Article"},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Full Document"}, chunks[0].Hierarchy)
	assert.Equal(t, "short note", chunks[0].Text)
}

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(1200, 100)
	assert.Empty(t, s.Split("   \n\n  ", StructureDescriptor{StructurePattern: PatternNarrative}))
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// Two-byte runes; a cut at an odd byte offset would split one.
	s := strings.Repeat("é", 60)
	out := truncate(s, 99)

	assert.True(t, utf8.ValidString(out))
	assert.Len(t, out, 98)
	assert.Equal(t, s, truncate(s, 200))
}

func TestSectionTitleStaysValidUTF8(t *testing.T) {
	s := NewSplitter(1200, 100)
	heading := "Section 1: " + strings.Repeat("é", 100)
	text := heading + "\n" + strings.Repeat("body ", 40)

	chunks := s.Split(text, StructureDescriptor{
		StructurePattern: PatternHierarchical,
		SectionMarkers:   []string{"Section"},
	})

	require.Len(t, chunks, 1)
	assert.True(t, utf8.ValidString(chunks[0].Hierarchy[0]))
	assert.LessOrEqual(t, len(chunks[0].Hierarchy[0]), 100)
}
