package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minEntryChunk   = 100
	minSectionChunk = 80
	maxTitleLen     = 100
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	defaultHeading = regexp.MustCompile(`(?i)^(Article|Section|Clause)\s+\w+|^\d+\.\s+`)
	rowLike        = regexp.MustCompile(`\t|\|| {3,}`)
)

// Splitter decomposes document text into ordered raw chunks, dispatching on
// the structural pattern of the analyzer's descriptor.
type Splitter struct {
	maxChunkSize int
	overlap      int
}

func NewSplitter(maxChunkSize, overlap int) *Splitter {
	if maxChunkSize <= 0 {
		maxChunkSize = 1200
	}
	if overlap <= 0 {
		overlap = 100
	}
	return &Splitter{maxChunkSize: maxChunkSize, overlap: overlap}
}

// Split always returns at least one chunk for non-empty input: if every
// strategy comes up empty, the whole document becomes one chunk.
func (s *Splitter) Split(text string, desc StructureDescriptor) []RawChunk {
	var chunks []RawChunk
	switch desc.StructurePattern {
	case PatternRepeatedEntries:
		chunks = s.splitBySeparators(text, desc.EntrySeparators)
	case PatternHierarchical:
		chunks = s.splitBySections(text, desc.SectionMarkers)
	case PatternTabular:
		chunks = s.splitTabular(text)
	default:
		chunks = s.splitSemantic(text)
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		chunks = []RawChunk{{Text: strings.TrimSpace(text), Hierarchy: []string{"Full Document"}}}
	}
	return chunks
}

// splitBySeparators matches repeated blocks anchored at line starts. A
// separator qualifies only if it yields more than two matches; otherwise the
// next candidate is tried, and finally semantic splitting.
func (s *Splitter) splitBySeparators(text string, separators []string) []RawChunk {
	for _, sep := range separators {
		sep = strings.TrimSpace(sep)
		if sep == "" {
			continue
		}

		re, err := regexp.Compile(`(?m)^` + regexp.QuoteMeta(sep))
		if err != nil {
			continue
		}
		starts := re.FindAllStringIndex(text, -1)
		if len(starts) <= 2 {
			continue
		}

		var chunks []RawChunk
		firstAtDocStart := false
		for i, loc := range starts {
			end := len(text)
			if i+1 < len(starts) {
				end = starts[i+1][0]
			}
			block := strings.TrimSpace(text[loc[0]:end])
			if len(block) > minEntryChunk {
				if len(chunks) == 0 && loc[0] == 0 {
					firstAtDocStart = true
				}
				chunks = append(chunks, RawChunk{
					Text:      block,
					Hierarchy: []string{fmt.Sprintf("Entry %d", len(chunks)+1)},
				})
			}
		}
		if len(chunks) == 0 {
			continue
		}
		// A block at the very top of the document is usually the header,
		// not an entry.
		if firstAtDocStart && len(chunks) > 1 {
			chunks = renumberEntries(chunks[1:])
		}
		return chunks
	}
	return s.splitSemantic(text)
}

func renumberEntries(chunks []RawChunk) []RawChunk {
	for i := range chunks {
		chunks[i].Hierarchy = []string{fmt.Sprintf("Entry %d", i+1)}
	}
	return chunks
}

// splitBySections scans lines for heading patterns derived from the
// analyzer's markers and accumulates lines into the current section until a
// new heading appears.
func (s *Splitter) splitBySections(text string, markers []string) []RawChunk {
	var patterns []string
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if m == "##" || m == "###" {
			patterns = append(patterns, `^`+regexp.QuoteMeta(m)+`\s+.*$`)
		} else {
			patterns = append(patterns, `^`+regexp.QuoteMeta(m)+`\s*\d+[:.\s].*$`)
		}
	}

	matchers := make([]*regexp.Regexp, 0, len(patterns)+1)
	for _, p := range patterns {
		if re, err := regexp.Compile(`(?i)` + p); err == nil {
			matchers = append(matchers, re)
		}
	}
	matchers = append(matchers, defaultHeading)

	isHeading := func(line string) bool {
		for _, re := range matchers {
			if re.MatchString(line) {
				return true
			}
		}
		return false
	}

	var chunks []RawChunk
	var current []string
	currentTitle := "Document Start"

	closeSection := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		if len(body) > minSectionChunk {
			chunks = append(chunks, RawChunk{Text: body, Hierarchy: []string{currentTitle}})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isHeading(trimmed) {
			if len(current) > 0 {
				closeSection()
			}
			currentTitle = truncate(trimmed, maxTitleLen)
			current = []string{line}
		} else {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		closeSection()
	}
	return chunks
}

// splitTabular groups contiguous row-like lines into row-groups separated by
// blank lines; a detected header line is prefixed to every group. Falls back
// to semantic splitting if nothing looks row-like.
func (s *Splitter) splitTabular(text string) []RawChunk {
	lines := strings.Split(text, "\n")

	header := ""
	var groups [][]string
	var current []string

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if !rowLike.MatchString(line) {
			flush()
			continue
		}
		if header == "" && len(groups) == 0 && len(current) == 0 && !strings.ContainsAny(trimmed, "0123456789") {
			// First row-like line without digits reads as the column header.
			header = trimmed
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(groups) == 0 {
		return s.splitSemantic(text)
	}

	var chunks []RawChunk
	for _, group := range groups {
		body := strings.TrimSpace(strings.Join(group, "\n"))
		if header != "" {
			body = header + "\n" + body
		}
		if len(body) > minSectionChunk {
			chunks = append(chunks, RawChunk{
				Text:      body,
				Hierarchy: []string{fmt.Sprintf("Table %d", len(chunks)+1)},
			})
		}
	}
	return chunks
}

// splitSemantic packs blank-line-delimited paragraphs into chunks up to the
// maximum size. A closing chunk seeds the next one with the tail of its last
// paragraph so local context survives the boundary.
func (s *Splitter) splitSemantic(text string) []RawChunk {
	var paragraphs []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []RawChunk
	current := ""
	lastPara := ""

	closeChunk := func() {
		chunks = append(chunks, RawChunk{
			Text:      strings.TrimSpace(current),
			Hierarchy: []string{fmt.Sprintf("Part %d", len(chunks)+1)},
		})
	}

	for _, para := range paragraphs {
		if current != "" && len(current)+len(para)+2 > s.maxChunkSize {
			closeChunk()
			if len(lastPara) > s.overlap {
				current = lastPara[len(lastPara)-s.overlap:] + "\n\n" + para
			} else {
				current = para
			}
		} else if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
		lastPara = para
	}
	if strings.TrimSpace(current) != "" {
		closeChunk()
	}
	return chunks
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so the
// result is always valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
