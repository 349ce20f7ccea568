package projection

import (
	"fmt"

	"github.com/poco-ai/poco-console/internals/schemas"
)

type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyImage
	BodyCode
	BodyText
	BodyPreview
)

// Card is the renderable form of an artifact.
type Card struct {
	ID    string
	Title string
	Label string
	Kind  BodyKind
	// Body is the url for images, the content for text-like artifacts and
	// the preview hint for documents.
	Body string
	// Size is "12.3 KB" for documents with a known size.
	Size      string
	CreatedAt string
}

var labels = map[schemas.ArtifactType]string{
	schemas.ArtifactTypeText:     "Text",
	schemas.ArtifactTypeCodeDiff: "Code",
	schemas.ArtifactTypeImage:    "Image",
	schemas.ArtifactTypePPT:      "Presentation",
	schemas.ArtifactTypePDF:      "PDF",
	schemas.ArtifactTypeMarkdown: "Markdown",
	schemas.ArtifactTypeJSON:     "JSON",
}

const previewHint = "Click to preview file"

func Label(t schemas.ArtifactType) string {
	if label, ok := labels[t]; ok {
		return label
	}
	return "File"
}

func CardFor(a schemas.Artifact) Card {
	card := Card{ID: a.ID, Title: a.Title, Label: Label(a.Type), CreatedAt: a.CreatedAt}
	switch a.Type {
	case schemas.ArtifactTypeImage:
		card.Kind, card.Body = BodyImage, a.URL
	case schemas.ArtifactTypeCodeDiff:
		card.Kind, card.Body = BodyCode, a.Content
	case schemas.ArtifactTypeText, schemas.ArtifactTypeMarkdown, schemas.ArtifactTypeJSON:
		card.Kind, card.Body = BodyText, a.Content
	case schemas.ArtifactTypePPT, schemas.ArtifactTypePDF:
		card.Kind, card.Body = BodyPreview, previewHint
		if size := a.Size(); size > 0 {
			card.Size = FormatKB(size)
		}
	}
	return card
}

func Cards(artifacts []schemas.Artifact) []Card {
	cards := make([]Card, 0, len(artifacts))
	for _, a := range artifacts {
		cards = append(cards, CardFor(a))
	}
	return cards
}

func FormatKB(size int64) string {
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
