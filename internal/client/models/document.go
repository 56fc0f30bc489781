package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType is the backend's numeric document type.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypePDF
	FileTypeText
	FileTypeDOCX
	FileTypeDOC
	FileTypeMarkdown
	FileTypeCSV
)

type fileTypeInfo struct {
	ext   string
	mime  string
	label string
}

var fileTypes = map[FileType]fileTypeInfo{
	FileTypePDF:      {ext: ".pdf", mime: "application/pdf", label: "PDF"},
	FileTypeText:     {ext: ".txt", mime: "text/plain", label: "Text"},
	FileTypeDOCX:     {ext: ".docx", mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", label: "Word"},
	FileTypeDOC:      {ext: ".doc", mime: "application/msword", label: "Word"},
	FileTypeMarkdown: {ext: ".md", mime: "text/markdown", label: "Markdown"},
	FileTypeCSV:      {ext: ".csv", mime: "text/csv", label: "CSV"},
}

func (t FileType) String() string {
	if info, ok := fileTypes[t]; ok {
		return info.label
	}
	return "Unknown"
}

// MIME returns the content type sent with uploads of this type.
func (t FileType) MIME() string {
	if info, ok := fileTypes[t]; ok {
		return info.mime
	}
	return "application/octet-stream"
}

// FileTypeFromName maps a file name to an accepted type by extension.
func FileTypeFromName(name string) FileType {
	ext := strings.ToLower(filepath.Ext(name))
	for t, info := range fileTypes {
		if info.ext == ext {
			return t
		}
	}
	return FileTypeUnknown
}

// FileTypeFromMIME maps a content type (parameters ignored) to an accepted type.
func FileTypeFromMIME(mime string) FileType {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	for t, info := range fileTypes {
		if info.mime == mime {
			return t
		}
	}
	return FileTypeUnknown
}

// AcceptedExtensions lists the upload extensions, sorted by type.
func AcceptedExtensions() []string {
	out := make([]string, 0, len(fileTypes))
	for t := FileTypePDF; t <= FileTypeCSV; t++ {
		out = append(out, fileTypes[t].ext)
	}
	return out
}

type Document struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	FileType   FileType  `json:"file_type"`
	Size       int64     `json:"size"`
	S3Location string    `json:"s3_location"`
	CreatedAt  time.Time `json:"created_at"`
}
