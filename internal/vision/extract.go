package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/book-expert/narration-service/internal/book"
)

const (
	// fallbackRawTextLimit caps how much raw model output is carried into a
	// fallback narrator field.
	fallbackRawTextLimit = 500

	// fallbackSceneDescription marks records whose model output could not be
	// parsed.
	fallbackSceneDescription = "解析失败"
)

// ExtractPageAnalysis parses the raw text returned by the vision model into a
// page analysis. It scans for the first '{' and the last '}' and attempts to
// decode the enclosed object. Any failure resolves to a fallback record; this
// function never returns an error, because upstream model output carries no
// schema guarantee.
func ExtractPageAnalysis(raw string, pageIndex int) book.PageAnalysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start >= 0 && end > start {
		var page book.PageAnalysis

		err := json.Unmarshal([]byte(raw[start:end+1]), &page)
		if err == nil {
			if page.Dialogues == nil {
				page.Dialogues = []book.DialogueLine{}
			}

			return page
		}
	}

	return fallbackAnalysis(raw, pageIndex)
}

// fallbackAnalysis builds the degraded record for unparseable output. The
// narrator always embeds the 1-based page number so a reader can still tell
// which page the record belongs to.
func fallbackAnalysis(raw string, pageIndex int) book.PageAnalysis {
	narrator := fmt.Sprintf("第%d页", pageIndex+1)

	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		narrator = fmt.Sprintf("第%d页：%s", pageIndex+1, truncateRunes(trimmed, fallbackRawTextLimit))
	}

	return book.PageAnalysis{
		Narrator:         narrator,
		Dialogues:        []book.DialogueLine{},
		SceneDescription: fallbackSceneDescription,
	}
}

// truncateRunes shortens s to at most limit runes. Truncation is rune-based
// so multi-byte text is never cut mid-character.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
