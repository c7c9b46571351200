package vision

import (
	"strings"

	"github.com/book-expert/narration-service/internal/core"
)

const defaultMediaType = "image/jpeg"

// NormalizeImage strips an optional data-URL prefix from a base64 image
// payload and detects the declared media type from it. Payloads without a
// recognizable prefix are assumed to be JPEG.
func NormalizeImage(raw string) core.ImagePayload {
	if strings.HasPrefix(raw, "data:") {
		header, data, found := strings.Cut(raw, ",")
		if found {
			return core.ImagePayload{
				Data:      data,
				MediaType: mediaTypeFromHeader(header),
			}
		}
	}

	// Some callers send "<mime>,<data>" without the data: scheme.
	if _, data, found := strings.Cut(raw, ","); found {
		return core.ImagePayload{Data: data, MediaType: defaultMediaType}
	}

	return core.ImagePayload{Data: raw, MediaType: defaultMediaType}
}

func mediaTypeFromHeader(header string) string {
	switch {
	case strings.Contains(header, "png"):
		return "image/png"
	case strings.Contains(header, "webp"):
		return "image/webp"
	case strings.Contains(header, "gif"):
		return "image/gif"
	default:
		return defaultMediaType
	}
}
