package models

import (
	"strconv"
	"time"
)

// FileType is one of the three kinds of record.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// HasContent is false only for folders.
func (t FileType) HasContent() bool {
	return t == FileTypeFile || t == FileTypeImage
}

// HasThumbnails reports whether derived sizes are produced for t.
func (t FileType) HasThumbnails() bool {
	return t == FileTypeImage
}

// File is the metadata record of a folder, file or image. LocalPath is the
// blob key of the content and never leaves the server.
type File struct {
	ID        FileID    `json:"id"`
	UserID    UserID    `json:"userId"`
	Name      string    `json:"name"`
	Type      FileType  `json:"type"`
	IsPublic  bool      `json:"isPublic"`
	ParentID  ParentID  `json:"parentId"`
	LocalPath string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// ThumbnailWidths are the derived widths produced for every image, widest first.
var ThumbnailWidths = []int{500, 250, 100}

// DerivedPath is the blob key of the thumbnail of localPath at width.
func DerivedPath(localPath string, width int) string {
	return localPath + "_" + strconv.Itoa(width)
}

// SizedPath resolves the blob key for an optional size request. An empty
// size means the original. Any other value is appended verbatim, so an
// unsupported size names a blob that does not exist.
func SizedPath(localPath, size string) string {
	if size == "" {
		return localPath
	}
	return localPath + "_" + size
}
