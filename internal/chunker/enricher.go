package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/llm"
	modelpkg "github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

const (
	maxTopics    = 5
	maxSummary   = 140
	maxTitleScan = 120
)

var topicVocabulary = map[string]bool{
	"Lease": true, "Tenant": true, "Building": true, "Rent": true,
	"Term": true, "Renewal": true, "Parking": true, "Utilities": true,
}

var (
	capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)*\b`)
	alnum             = regexp.MustCompile(`[a-zA-Z0-9]`)

	fieldPatterns = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"tenant_name", regexp.MustCompile(`(?i)Tenant[:\s]+([A-Z][\w\s&]+?)(?:\n|$)`)},
		{"building", regexp.MustCompile(`(?i)Building[:\s]+([^\n]+)`)},
		{"address", regexp.MustCompile(`(?i)Address[:\s]+([^\n]+)`)},
		{"rent", regexp.MustCompile(`(?i)Rent[:\s]+\$?([0-9,]+\.?[0-9]*)`)},
		{"sf", regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)\s*(?:SF|sq\.?\s*ft\.?)`)},
		{"lease_end", regexp.MustCompile(`(?i)Expiration[:\s]+(\d{1,2}/\d{1,2}/\d{2,4}|\w+ \d{1,2}, \d{4})`)},
	}

	entityPatterns = []struct {
		entityType string
		re         *regexp.Regexp
	}{
		{"tenant", regexp.MustCompile(`(?i)Tenant[:\s]+([A-Z][\w\s&.,'-]+?)(?:\n|$)`)},
		{"building", regexp.MustCompile(`(?i)Building[:\s]+([^\n]+)`)},
		{"lease", regexp.MustCompile(`(?i)Lease(?:\s+Agreement)?\s+(?:No\.?|Number|#)\s*([\w-]+)`)},
		{"broker", regexp.MustCompile(`(?i)Broker[:\s]+([A-Z][\w\s&.,'-]+?)(?:\n|$)`)},
	}
)

// EntityTable is the once-per-document entity extraction shared by every
// chunk of that document.
type EntityTable struct {
	Tenants   []string `json:"tenants"`
	Buildings []string `json:"buildings"`
	Leases    []string `json:"leases"`
	Brokers   []string `json:"brokers"`
}

const entityPrompt = `Return ONLY JSON. List the named entities in this document.

Preview: %s

{"tenants": [], "buildings": [], "leases": [], "brokers": []}`

// Enricher derives chunk-level metadata. All derivations are heuristic
// except the document-level entity table, which costs one model call and is
// skipped for large documents.
type Enricher struct {
	chat             llm.Chatter
	entityTableLimit int
	previewSize      int
	logger           *slog.Logger
}

func NewEnricher(chat llm.Chatter, entityTableLimit, previewSize int) *Enricher {
	if entityTableLimit <= 0 {
		entityTableLimit = 15
	}
	if previewSize <= 0 {
		previewSize = 1800
	}
	return &Enricher{
		chat:             chat,
		entityTableLimit: entityTableLimit,
		previewSize:      previewSize,
		logger:           slog.Default().With("service", "enricher"),
	}
}

// ExtractEntityTable runs the one document-level entity call. Returns an
// empty table when the document has too many chunks (cost bound) or the call
// fails — entity resolution then falls back to per-chunk regexes.
func (e *Enricher) ExtractEntityTable(ctx context.Context, text string, chunkCount int) EntityTable {
	if chunkCount > e.entityTableLimit {
		return EntityTable{}
	}

	preview := truncate(text, e.previewSize)

	resp, err := e.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(fmt.Sprintf(entityPrompt, preview))},
		model.WithTemperature(0),
	)
	if err != nil {
		e.logger.Warn("entity extraction failed, falling back to regex detection", "error", err)
		return EntityTable{}
	}

	var table EntityTable
	if err := llm.UnmarshalLoose(resp.Content, &table); err != nil {
		e.logger.Warn("entity extraction returned malformed output", "error", err)
		return EntityTable{}
	}
	return table
}

// Enrich turns one raw chunk into a fully-attributed chunk.
func (e *Enricher) Enrich(raw RawChunk, idx, total int, desc StructureDescriptor, table EntityTable, scope Scope) Chunk {
	entityType, entityValue := resolvePrimaryEntity(raw.Text, table)

	return Chunk{
		Text:               raw.Text,
		ChunkIndex:         idx,
		TotalChunks:        total,
		SectionHierarchy:   raw.Hierarchy,
		ChunkTitle:         inferTitle(raw.Text, raw.Hierarchy),
		ChunkType:          inferChunkType(raw.Text),
		KeyTopics:          extractTopics(raw.Text),
		SearchableFields:   extractSearchableFields(raw.Text),
		SemanticSummary:    summarize(raw.Text),
		DocType:            desc.DocType,
		PrimaryEntityType:  entityType,
		PrimaryEntityValue: entityValue,
		Scope:              scope,
	}
}

func inferTitle(text string, hierarchy []string) string {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if len(firstLine) < maxTitleScan && alnum.MatchString(firstLine) {
		return firstLine
	}
	if len(hierarchy) > 0 {
		return hierarchy[len(hierarchy)-1]
	}
	return "Untitled Section"
}

func inferChunkType(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "tenant") && (strings.Contains(lower, "lease") || strings.Contains(lower, "rent")) {
		return modelpkg.ChunkTypeTenantRecord
	}
	if strings.Contains(lower, "building") || strings.Contains(lower, "address") || strings.Contains(lower, "sq ft") {
		return modelpkg.ChunkTypeBuildingRecord
	}
	for _, kw := range []string{"article", "section", "clause"} {
		if strings.Contains(lower, kw) {
			return modelpkg.ChunkTypeDocumentSection
		}
	}
	return modelpkg.ChunkTypeInformationBlock
}

func extractTopics(text string) []string {
	var topics []string
	seen := map[string]bool{}
	for _, m := range capitalizedPhrase.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		if topicVocabulary[m] || len(m) > 8 {
			topics = append(topics, m)
			seen[m] = true
		}
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}

// summarize builds a short preview from the first sentences, capped to the
// summary budget.
func summarize(text string) string {
	sentences := splitSentences(text)
	summary := ""
	for i, s := range sentences {
		if i == 3 {
			break
		}
		if len(summary)+len(s) >= maxSummary {
			break
		}
		summary += s + " "
	}
	summary = strings.TrimSpace(summary)
	if summary != "" {
		return summary
	}
	if len(text) > 130 {
		return truncate(text, 130) + "..."
	}
	return text
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && (text[i+1] == ' ' || text[i+1] == '\n') {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func extractSearchableFields(text string) modelpkg.SearchableFields {
	var f modelpkg.SearchableFields
	for _, p := range fieldPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		switch p.name {
		case "tenant_name":
			f.TenantName = v
		case "building":
			f.Building = v
		case "address":
			f.Address = v
		case "rent":
			f.Rent = v
		case "sf":
			f.SquareFootage = v
		case "lease_end":
			f.LeaseEnd = v
		}
	}
	return f
}

// resolvePrimaryEntity checks the document-level entity table first, then
// falls back to regex detection directly in the chunk.
func resolvePrimaryEntity(text string, table EntityTable) (string, string) {
	lower := strings.ToLower(text)
	for _, group := range []struct {
		entityType string
		values     []string
	}{
		{"tenant", table.Tenants},
		{"building", table.Buildings},
		{"lease", table.Leases},
		{"broker", table.Brokers},
	} {
		for _, v := range group.values {
			if v != "" && strings.Contains(lower, strings.ToLower(v)) {
				return group.entityType, v
			}
		}
	}

	for _, p := range entityPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return p.entityType, strings.TrimSpace(m[1])
		}
	}
	return "", ""
}
