package ingest

import "time"

// SavedFile describes an upload written to the upload directory.
type SavedFile struct {
	Name       string // stored name, unique within the upload directory
	Original   string // client-supplied name
	Path       string
	HashHex    string // sha256 of the content
	FileExt    string
	Size       int64
	UploadedAt time.Time
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}
