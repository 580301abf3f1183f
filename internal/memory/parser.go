package memory

import (
	"regexp"
	"strings"
)

// Line shapes in the feedback history log. The parser is two-pass: lines
// are first classified, then folded into sections and bullets, so section
// boundaries stay explicit instead of hiding inside lookahead regexes.
var (
	feedbackHeadingRe = regexp.MustCompile(`^## Feedback - (\d{4}-\d{2}-\d{2} \d{2}:\d{2})`)
	protocolLineRe    = regexp.MustCompile(`^\*\*Protocolo:\*\* (.+)`)
	modelLineRe       = regexp.MustCompile(`^\*\*Modelo:\*\* (.+)`)
	bulletRe          = regexp.MustCompile(`^- \*\*([^*]+):\*\* (.*)`)
)

const rejectedHeading = "### Sugestões Rejeitadas"

type lineKind int

const (
	lineText lineKind = iota
	lineBlank
	lineFeedbackHeading
	lineRejectedHeading
	lineOtherHeading
	lineRule // horizontal rule "---"
	lineProtocol
	lineModel
	lineBullet
)

type token struct {
	kind lineKind
	// a is the first capture: timestamp, protocol, model, or bullet ID.
	a string
	// b is the second capture: bullet text.
	b string
	// raw is the unparsed line, kept so metadata-shaped lines can still
	// serve as bullet continuations.
	raw string
}

// tokenize classifies each line of the document.
func tokenize(content string) []token {
	lines := strings.Split(content, "\n")
	tokens := make([]token, 0, len(lines))

	for _, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			tokens = append(tokens, token{kind: lineBlank})
		case feedbackHeadingRe.MatchString(line):
			m := feedbackHeadingRe.FindStringSubmatch(line)
			tokens = append(tokens, token{kind: lineFeedbackHeading, a: m[1]})
		case strings.HasPrefix(line, rejectedHeading):
			tokens = append(tokens, token{kind: lineRejectedHeading})
		case strings.HasPrefix(line, "##"):
			tokens = append(tokens, token{kind: lineOtherHeading})
		case strings.HasPrefix(line, "---"):
			tokens = append(tokens, token{kind: lineRule})
		case protocolLineRe.MatchString(line):
			m := protocolLineRe.FindStringSubmatch(line)
			tokens = append(tokens, token{kind: lineProtocol, a: strings.TrimSpace(m[1]), raw: line})
		case modelLineRe.MatchString(line):
			m := modelLineRe.FindStringSubmatch(line)
			tokens = append(tokens, token{kind: lineModel, a: strings.TrimSpace(m[1]), raw: line})
		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			tokens = append(tokens, token{kind: lineBullet, a: strings.TrimSpace(m[1]), b: m[2]})
		default:
			tokens = append(tokens, token{kind: lineText, a: line})
		}
	}

	return tokens
}

// ExtractRejectedSuggestions mines every "Sugestões Rejeitadas" bullet from
// the feedback history log.
//
// A feedback section spans from its "## Feedback - <timestamp>" heading to
// the next such heading or end of document. Protocol and model IDs come
// from the first "**Protocolo:**" / "**Modelo:**" line in the section,
// defaulting to "unknown". Within a section, the rejected subsection runs
// from its heading to the next horizontal rule, any other heading, or the
// section end; each bullet's text continues across lines until the next
// bullet, a blank line, or the end of the subsection.
//
// Extraction is deterministic: identical input yields identical output,
// in document order. Empty or section-free input yields no entries.
func ExtractRejectedSuggestions(content string) []FeedbackEntry {
	tokens := tokenize(content)
	var entries []FeedbackEntry

	var (
		inSection  bool
		inRejected bool
		timestamp  string
		protocolID string
		modelID    string
	)

	var bulletID string
	var bulletText []string

	flushBullet := func() {
		if bulletID == "" {
			return
		}
		comment := strings.TrimSpace(strings.Join(bulletText, "\n"))
		entries = append(entries, FeedbackEntry{
			SuggestionID: bulletID,
			Comment:      comment,
			ProtocolID:   protocolID,
			ModelID:      modelID,
			Timestamp:    timestamp,
			Text:         comment,
		})
		bulletID = ""
		bulletText = nil
	}

	for _, tok := range tokens {
		if tok.kind == lineFeedbackHeading {
			flushBullet()
			inSection = true
			inRejected = false
			timestamp = tok.a
			protocolID = "unknown"
			modelID = "unknown"
			continue
		}

		if !inSection {
			continue
		}

		switch tok.kind {
		case lineProtocol:
			if protocolID == "unknown" {
				protocolID = tok.a
			}
			// Inside an open bullet the line is also part of the comment.
			if inRejected && bulletID != "" {
				bulletText = append(bulletText, tok.raw)
			}
		case lineModel:
			if modelID == "unknown" {
				modelID = tok.a
			}
			if inRejected && bulletID != "" {
				bulletText = append(bulletText, tok.raw)
			}
		case lineRejectedHeading:
			flushBullet()
			inRejected = true
		case lineRule, lineOtherHeading:
			flushBullet()
			inRejected = false
		case lineBullet:
			if inRejected {
				flushBullet()
				bulletID = tok.a
				bulletText = []string{tok.b}
			}
		case lineBlank:
			flushBullet()
		case lineText:
			if inRejected && bulletID != "" {
				bulletText = append(bulletText, tok.a)
			}
		}
	}
	flushBullet()

	return entries
}
