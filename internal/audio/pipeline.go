// Package audio implements the book audio synthesis pipeline: one clip for
// the narrator text of each page plus one clip per dialogue line, uploaded
// under deterministic keys and collected into per-page manifests.
package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/book-expert/narration-service/internal/book"
	"github.com/book-expert/narration-service/internal/core"
	"github.com/book-expert/narration-service/internal/speech"
)

// Storage key formats. Keys are deterministic per (book, page, kind, index)
// so a repeated run for the same inputs overwrites instead of accumulating
// objects.
const (
	narratorKeyFormat = "%s/audio/page_%d_narrator.mp3"
	dialogueKeyFormat = "%s/audio/page_%d_dialogue_%d.mp3"
	audioContentType  = "audio/mpeg"
)

// ErrBookIDEmpty indicates that no book id was provided for synthesis.
var ErrBookIDEmpty = errors.New("book id cannot be empty")

// Pipeline synthesizes and uploads all audio segments for a book.
type Pipeline struct {
	synthesizer core.SpeechSynthesizer
	store       core.ObjectStore
	voices      speech.VoiceMap
	log         *logger.Logger
}

// NewPipeline creates a synthesis pipeline.
func NewPipeline(
	synthesizer core.SpeechSynthesizer,
	store core.ObjectStore,
	voices speech.VoiceMap,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		synthesizer: synthesizer,
		store:       store,
		voices:      voices,
		log:         log,
	}
}

// SynthesizeBook produces one manifest per page, positionally aligned with
// the input pages. The first segment failure aborts the whole call: no
// manifest is returned and segments already uploaded for earlier pages are
// left in place. Because keys are deterministic, a retry overwrites them.
func (p *Pipeline) SynthesizeBook(
	ctx context.Context,
	bookID string,
	pages []book.PageAnalysis,
) ([]book.PageAudioManifest, error) {
	if bookID == "" {
		return nil, ErrBookIDEmpty
	}

	manifests := make([]book.PageAudioManifest, 0, len(pages))

	for pageIndex, page := range pages {
		manifest, err := p.synthesizePage(ctx, bookID, pageIndex, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageIndex, err)
		}

		manifests = append(manifests, manifest)
	}

	return manifests, nil
}

func (p *Pipeline) synthesizePage(
	ctx context.Context,
	bookID string,
	pageIndex int,
	page book.PageAnalysis,
) (book.PageAudioManifest, error) {
	manifest := book.PageAudioManifest{
		Narrator:  nil,
		Dialogues: []book.AudioSegment{},
	}

	// An empty narrator means no narrator segment at all, not a silent
	// placeholder.
	if page.Narrator != "" {
		narratorURL, err := p.synthesizeSegment(
			ctx,
			page.Narrator,
			p.voices.Narrator,
			fmt.Sprintf(narratorKeyFormat, bookID, pageIndex),
		)
		if err != nil {
			return book.PageAudioManifest{}, fmt.Errorf("narrator: %w", err)
		}

		manifest.Narrator = &book.AudioSegment{URL: narratorURL}
	}

	for dialogueIndex, dialogue := range page.Dialogues {
		// Lines without text carry nothing to synthesize.
		if dialogue.Text == "" {
			continue
		}

		voice := p.voices.Select(dialogue.Character, dialogue.Emotion)

		dialogueURL, err := p.synthesizeSegment(
			ctx,
			dialogue.Text,
			voice,
			fmt.Sprintf(dialogueKeyFormat, bookID, pageIndex, dialogueIndex),
		)
		if err != nil {
			return book.PageAudioManifest{}, fmt.Errorf("dialogue %d: %w", dialogueIndex, err)
		}

		manifest.Dialogues = append(manifest.Dialogues, book.AudioSegment{
			Character: dialogue.Character,
			Text:      dialogue.Text,
			Emotion:   dialogue.Emotion,
			URL:       dialogueURL,
		})
	}

	return manifest, nil
}

func (p *Pipeline) synthesizeSegment(
	ctx context.Context,
	text, voice, key string,
) (string, error) {
	audioData, err := p.synthesizer.Synthesize(ctx, text, voice)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize audio: %w", err)
	}

	err = p.store.Upload(ctx, key, audioData, audioContentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio for key '%s': %w", key, err)
	}

	p.log.Info("Uploaded audio segment %s (%d bytes)", key, len(audioData))

	return p.store.PublicURL(key), nil
}
