package services

import (
	"fmt"
	"strings"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

const answerPreamble = `You are a helpful assistant that answers questions using the reference documents provided below. Ground every answer in those documents. Use the conversation so far to interpret follow-up questions. If the documents do not contain the answer, say that you cannot find it in the available documents.`

// noGroundingMarker stands in for reference documents when retrieval
// returns nothing. The question still proceeds so the model can say it
// has no material, instead of the query failing outright.
const noGroundingMarker = "(no relevant document fragments were found)"

const fragmentSeparator = "\n\n---\n\n"

// buildMessages composes the chat messages for one query. The layout is
// fixed: preamble, then conversation history oldest-first, then the
// retrieved fragments in retrieval order, then the question. Identical
// inputs always produce identical messages.
func buildMessages(window []domain.Exchange, fragments []domain.RetrievedFragment, question string) []driven.ChatMessage {
	var b strings.Builder

	if len(window) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, ex := range window {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Reference documents:\n")
	if len(fragments) == 0 {
		b.WriteString(noGroundingMarker)
	} else {
		parts := make([]string, len(fragments))
		for i, frag := range fragments {
			parts[i] = fmt.Sprintf("[File: %s]\n%s", frag.Filename, frag.Content)
		}
		b.WriteString(strings.Join(parts, fragmentSeparator))
	}

	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)

	return []driven.ChatMessage{
		{Role: "system", Content: answerPreamble},
		{Role: "user", Content: b.String()},
	}
}

// uniqueSources returns the grounding filenames in first-seen order.
func uniqueSources(fragments []domain.RetrievedFragment) []string {
	seen := make(map[string]bool, len(fragments))
	sources := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		if seen[frag.Filename] {
			continue
		}
		seen[frag.Filename] = true
		sources = append(sources, frag.Filename)
	}
	return sources
}
