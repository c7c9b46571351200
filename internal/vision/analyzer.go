package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"golang.org/x/sync/errgroup"

	"github.com/book-expert/narration-service/internal/book"
	"github.com/book-expert/narration-service/internal/core"
)

const providerErrorLimit = 100

// pageInstructionFormat asks the model for the fixed JSON shape the extractor
// understands. The deployment narrates Chinese picture books, so the
// instruction and the requested output are Chinese.
const pageInstructionFormat = `请分析这张绘本图片（第%d页），用中文返回以下JSON格式：
{
    "narrator": "旁白文字（描述场景的主要故事文字，如果没有文字则根据画面编写）",
    "dialogues": [
        {
            "character": "角色名称",
            "text": "角色说的话",
            "emotion": "情感（开心、悲伤、兴奋、惊讶、愤怒等）"
        }
    ],
    "scene_description": "场景简要描述"
}
只返回JSON，不要其他文字。`

// Analyzer turns page images into normalized page-analysis records. It
// absorbs every per-page failure into a fallback record: a batch of N images
// always yields exactly N records.
type Analyzer struct {
	model   core.VisionModel
	log     *logger.Logger
	workers int
}

// NewAnalyzer creates an analyzer backed by the given vision model. The
// worker count bounds the fan-out of AnalyzeAll; a count of one keeps the
// batch strictly sequential.
func NewAnalyzer(model core.VisionModel, workers int, log *logger.Logger) *Analyzer {
	if workers < 1 {
		workers = 1
	}

	return &Analyzer{
		model:   model,
		log:     log,
		workers: workers,
	}
}

// AnalyzePage analyzes a single page image. Provider errors and malformed
// output both degrade to a fallback record; this method never returns an
// error.
func (a *Analyzer) AnalyzePage(ctx context.Context, image string, pageIndex int) book.PageAnalysis {
	payload := NormalizeImage(image)
	instruction := fmt.Sprintf(pageInstructionFormat, pageIndex+1)

	raw, err := a.model.DescribeImage(ctx, payload, instruction)
	if err != nil {
		a.log.Warn("Vision analysis failed for page %d: %v", pageIndex, err)

		return providerFailureAnalysis(err, pageIndex)
	}

	return ExtractPageAnalysis(raw, pageIndex)
}

// AnalyzeAll analyzes a batch of page images, preserving input order. The
// result always has exactly one record per input image, written into its
// original position regardless of completion order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, images []string) []book.PageAnalysis {
	results := make([]book.PageAnalysis, len(images))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)

	for pageIndex, image := range images {
		group.Go(func() error {
			results[pageIndex] = a.AnalyzePage(groupCtx, image, pageIndex)

			return nil
		})
	}

	// Pages never report errors; they degrade to fallback records instead.
	_ = group.Wait()

	return results
}

// providerFailureAnalysis builds the degraded record for a failed provider
// call. The scene description embeds the status code and truncated error body
// so the failure stays observable in the stored book.
func providerFailureAnalysis(err error, pageIndex int) book.PageAnalysis {
	detail := truncateRunes(err.Error(), providerErrorLimit)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		detail = fmt.Sprintf("%d - %s", statusErr.StatusCode, truncateRunes(statusErr.Body, providerErrorLimit))
	}

	return book.PageAnalysis{
		Narrator:         fmt.Sprintf("第%d页（分析失败）", pageIndex+1),
		Dialogues:        []book.DialogueLine{},
		SceneDescription: fmt.Sprintf("API错误: %s", detail),
	}
}
