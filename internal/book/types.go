// Package book defines the picture-book domain types and the store-backed
// book repository.
package book

// DialogueLine is one character utterance on a page. Ordering within a page
// is insertion order from the model response and is preserved end-to-end.
type DialogueLine struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	Emotion   string `json:"emotion"`
}

// PageAnalysis is the normalized description of one page produced by the
// analyzer. Callers may edit it before handing it to the audio pipeline.
type PageAnalysis struct {
	Narrator         string         `json:"narrator"`
	Dialogues        []DialogueLine `json:"dialogues"`
	SceneDescription string         `json:"scene_description"`
}

// AudioSegment is one synthesized audio artifact. Narrator segments carry
// only the URL; dialogue segments duplicate character, text and emotion from
// the source line for caller convenience.
type AudioSegment struct {
	Character string `json:"character,omitempty"`
	Text      string `json:"text,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
	URL       string `json:"url"`
}

// PageAudioManifest collects the segment URLs produced for one page. A page
// whose narrator text was empty has no narrator segment at all.
type PageAudioManifest struct {
	Narrator  *AudioSegment  `json:"narrator,omitempty"`
	Dialogues []AudioSegment `json:"dialogues"`
}

// Book is the persisted document for one picture book. It is stored as a
// single JSON object and replaced wholesale on every save.
type Book struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	CoverImage string              `json:"cover_image"`
	Pages      []PageAnalysis      `json:"pages"`
	AudioURLs  []PageAudioManifest `json:"audio_urls"`
	PageCount  int                 `json:"page_count"`
	CreatedAt  string              `json:"created_at"`
	UpdatedAt  string              `json:"updated_at"`
}

// Summary is the listing view of a stored book.
type Summary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CoverImage string `json:"cover_image"`
	PageCount  int    `json:"page_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}
