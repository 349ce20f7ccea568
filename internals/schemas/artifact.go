package schemas

type ArtifactType string

const (
	ArtifactTypeText     ArtifactType = "text"
	ArtifactTypeCodeDiff ArtifactType = "code_diff"
	ArtifactTypeImage    ArtifactType = "image"
	ArtifactTypePPT      ArtifactType = "ppt"
	ArtifactTypePDF      ArtifactType = "pdf"
	ArtifactTypeMarkdown ArtifactType = "markdown"
	ArtifactTypeJSON     ArtifactType = "json"
)

var ArtifactTypes = []ArtifactType{
	ArtifactTypeText,
	ArtifactTypeCodeDiff,
	ArtifactTypeImage,
	ArtifactTypePPT,
	ArtifactTypePDF,
	ArtifactTypeMarkdown,
	ArtifactTypeJSON,
}

type ArtifactMetadata struct {
	Size int64 `json:"size,omitempty"`
}

type Artifact struct {
	ID        string            `json:"id"`
	Type      ArtifactType      `json:"type"`
	Title     string            `json:"title"`
	Content   string            `json:"content,omitempty"`
	URL       string            `json:"url,omitempty"`
	CreatedAt string            `json:"created_at"`
	Metadata  *ArtifactMetadata `json:"metadata,omitempty"`
}

func (a Artifact) Size() int64 {
	if a.Metadata == nil {
		return 0
	}
	return a.Metadata.Size
}
