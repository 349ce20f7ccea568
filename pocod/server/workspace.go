package server

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/poco-ai/poco-console/internals/naming"
	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/schemas"
)

// sharedFiles is the tree served by GET /files.
func sharedFiles() []schemas.FileNode {
	return []schemas.FileNode{
		{
			ID:   "folder-1",
			Name: "Test files",
			Type: schemas.FileNodeFolder,
			Path: "/test",
			Children: []schemas.FileNode{
				{ID: "file-pdf-3", Name: "arXiv deep learning paper.pdf", Type: schemas.FileNodeFile, Path: "/test/arxiv-2601-07708.pdf", URL: "https://arxiv.org/pdf/2601.07708", MimeType: "application/pdf"},
				{ID: "file-docx-1", Name: "Sample document.docx", Type: schemas.FileNodeFile, Path: "/test/sample.docx", URL: "https://philfan-pic.oss-cn-beijing.aliyuncs.com/test/doc.docx", MimeType: "application/msword"},
				{ID: "file-xlsx-1", Name: "Sample sheet.xlsx", Type: schemas.FileNodeFile, Path: "/test/sample.xlsx", URL: "https://philfan-pic.oss-cn-beijing.aliyuncs.com/test/xls.xlsx", MimeType: "application/vnd.ms-excel"},
				{ID: "file-pptx-1", Name: "Slides.ppt", Type: schemas.FileNodeFile, Path: "/test/presentation.ppt", URL: "https://philfan-pic.oss-cn-beijing.aliyuncs.com/test/ppt.pptx", MimeType: "application/vnd.ms-powerpoint"},
				{ID: "file-image-1", Name: "Sample image.jpg", Type: schemas.FileNodeFile, Path: "/test/image1.jpg", URL: "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800", MimeType: "image/jpeg"},
			},
		},
	}
}

// sessionFiles is the shared tree plus an outputs folder holding the
// session's artifacts that have a file form.
func sessionFiles(sessionID string, artifacts []schemas.Artifact) []schemas.FileNode {
	files := sharedFiles()
	outputs := schemas.FileNode{
		ID:   "folder-outputs-" + sessionID,
		Name: "outputs",
		Type: schemas.FileNodeFolder,
		Path: "/outputs",
	}
	for _, a := range artifacts {
		name := artifactFilename(a)
		outputs.Children = append(outputs.Children, schemas.FileNode{
			ID:       "file-" + a.ID,
			Name:     name,
			Type:     schemas.FileNodeFile,
			Path:     path.Join("/outputs", name),
			URL:      a.URL,
			MimeType: artifactMimeType(a.Type),
		})
	}
	if len(outputs.Children) > 0 {
		files = append(files, outputs)
	}
	return files
}

var artifactExtensions = map[schemas.ArtifactType]string{
	schemas.ArtifactTypeText:     ".txt",
	schemas.ArtifactTypeCodeDiff: ".patch",
	schemas.ArtifactTypeMarkdown: ".md",
	schemas.ArtifactTypeJSON:     ".json",
	schemas.ArtifactTypeImage:    ".jpg",
	schemas.ArtifactTypePDF:      ".pdf",
	schemas.ArtifactTypePPT:      ".pptx",
}

func artifactFilename(a schemas.Artifact) string {
	return naming.FileName(a.Title, a.ID, artifactExtensions[a.Type])
}

func artifactMimeType(t schemas.ArtifactType) string {
	switch t {
	case schemas.ArtifactTypeMarkdown:
		return "text/markdown"
	case schemas.ArtifactTypeJSON:
		return "application/json"
	case schemas.ArtifactTypeImage:
		return "image/jpeg"
	case schemas.ArtifactTypePDF:
		return "application/pdf"
	case schemas.ArtifactTypePPT:
		return "application/vnd.ms-powerpoint"
	default:
		return "text/plain"
	}
}

type archiveManifest struct {
	SessionID string             `json:"session_id"`
	Prompt    string             `json:"prompt"`
	Files     []string           `json:"files"`
	Remote    []schemas.FileNode `json:"remote,omitempty"`
}

// writeArchive zips the text artifacts of a session and a manifest that
// lists every workspace file. Remote files are referenced, not fetched.
func writeArchive(w io.Writer, session schemas.ExecutionSession, modified time.Time) error {
	zw := zip.NewWriter(w)
	manifest := archiveManifest{SessionID: session.SessionID, Prompt: session.UserPrompt}

	var artifacts []schemas.Artifact
	if session.StatePatch != nil {
		artifacts = session.StatePatch.Artifacts
	}
	for _, a := range artifacts {
		if a.Content == "" {
			continue
		}
		name := path.Join("outputs", artifactFilename(a))
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, a.Content); err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, name)
	}

	for _, row := range projection.Flatten(sessionFiles(session.SessionID, artifacts)) {
		if !row.Node.IsFolder() && row.Node.URL != "" {
			manifest.Remote = append(manifest.Remote, schemas.FileNode{ID: row.Node.ID, Name: row.Node.Name, Path: row.Node.Path, URL: row.Node.URL, Type: row.Node.Type})
		}
	}

	f, err := zw.CreateHeader(&zip.FileHeader{Name: "manifest.json", Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return zw.Close()
}
