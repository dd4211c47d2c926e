package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
)

const DefaultHistoryWindow = 12

type QuestionAnswerer struct {
	model  ports.LanguageModel
	window int
}

func NewQuestionAnswerer(model ports.LanguageModel, window int) *QuestionAnswerer {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &QuestionAnswerer{model: model, window: window}
}

func (qa *QuestionAnswerer) Answer(ctx context.Context, documentText, question string, history []domain.ConversationTurn) (string, error) {
	reply, err := qa.model.GenerateText(ctx, BuildQuestionPrompt(documentText, question, history, qa.window))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// BuildQuestionPrompt keeps only the trailing window of turns, renumbered
// from 1 in chronological order.
func BuildQuestionPrompt(documentText, question string, history []domain.ConversationTurn, window int) string {
	var b strings.Builder
	b.WriteString("You are an assistant answering questions about an uploaded document. ")
	b.WriteString("Use both the document and the previous conversation to answer. ")
	b.WriteString("If the answer is not in the document, say so.\n\n")

	turns := domain.LastTurns(history, window)
	if len(turns) > 0 {
		b.WriteString("Previous conversation:\n")
		for i, turn := range turns {
			fmt.Fprintf(&b, "Turn %d:\nQ: %s\nA: %s\n", i+1, turn.Question, turn.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Document:\n")
	b.WriteString(documentText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
