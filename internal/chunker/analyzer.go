package chunker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/llm"
)

var validDocTypes = map[string]bool{
	DocTypeLeaseAgreement: true,
	DocTypeTenantList:     true,
	DocTypeBuildingSpec:   true,
	DocTypeMarketReport:   true,
	DocTypeContactDB:      true,
	DocTypeOther:          true,
}

var validPatterns = map[string]bool{
	PatternHierarchical:    true,
	PatternRepeatedEntries: true,
	PatternTabular:         true,
	PatternNarrative:       true,
}

const structurePrompt = `Return ONLY JSON. Analyze document:

Filename: %s
Preview: %s

{
  "doc_type": "lease_agreement|tenant_list|building_spec|market_report|contact_db|other",
  "structure_pattern": "hierarchical|repeated_entries|tabular|narrative",
  "primary_entity_type": "tenant|building|lease|broker|null",
  "section_markers": ["Article", "Section", "##", "Clause"],
  "entry_separators": ["***", "---", "Tenant:", "Building:"],
  "key_fields": ["Tenant Name", "Address", "Rent", "SF", "Lease End"]
}`

// Analyzer infers the structural descriptor of a document with exactly one
// classification call. It never fails ingestion: any error degrades to the
// fixed fallback descriptor.
type Analyzer struct {
	chat        llm.Chatter
	previewSize int
	logger      *slog.Logger
}

func NewAnalyzer(chat llm.Chatter, previewSize int) *Analyzer {
	if previewSize <= 0 {
		previewSize = 1800
	}
	return &Analyzer{
		chat:        chat,
		previewSize: previewSize,
		logger:      slog.Default().With("service", "analyzer"),
	}
}

func fallbackDescriptor() StructureDescriptor {
	return StructureDescriptor{
		DocType:          DocTypeOther,
		StructurePattern: PatternNarrative,
		SectionMarkers:   []string{"Article", "Section", "##"},
		EntrySeparators:  []string{"---", "***"},
		KeyFields:        []string{"Tenant", "Building", "Rent"},
	}
}

// Analyze classifies the document from its filename and a bounded preview.
func (a *Analyzer) Analyze(ctx context.Context, text, filename string) StructureResult {
	preview := truncate(text, a.previewSize)

	prompt := fmt.Sprintf(structurePrompt, filename, preview)
	resp, err := a.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(0),
	)
	if err != nil {
		a.logger.Warn("structure classification failed, using fallback",
			"filename", filename, "error", err)
		return StructureResult{Descriptor: fallbackDescriptor(), Fallback: true}
	}

	var desc StructureDescriptor
	if err := llm.UnmarshalLoose(resp.Content, &desc); err != nil {
		a.logger.Warn("structure classification returned malformed output, using fallback",
			"filename", filename, "error", err)
		return StructureResult{Descriptor: fallbackDescriptor(), Fallback: true}
	}

	if !validDocTypes[desc.DocType] || !validPatterns[desc.StructurePattern] {
		a.logger.Warn("structure classification outside closed sets, using fallback",
			"filename", filename,
			"doc_type", desc.DocType,
			"pattern", desc.StructurePattern)
		return StructureResult{Descriptor: fallbackDescriptor(), Fallback: true}
	}

	if desc.PrimaryEntityType == "null" {
		desc.PrimaryEntityType = ""
	}
	return StructureResult{Descriptor: desc}
}
