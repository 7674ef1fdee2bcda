package parser

import (
	"sort"
	"strings"

	"github.com/insightdelivered/extrato-analyzer/internal/categorize"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// splitLines breaks text into trimmed lines, accepting any line ending.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

// sortChronological orders by date, keeping document order within a day.
func sortChronological(txns []models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
}

func shouldSkip(line string, keywords []string) bool {
	return containsAny(normalize.Fold(line), keywords)
}

func containsAny(folded string, keywords []string) bool {
	return categorize.ContainsAny(folded, keywords)
}
