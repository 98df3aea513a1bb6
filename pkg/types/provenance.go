package types

import "time"

// Provenance records where a searched text came from.
type Provenance interface {
	Kind() string
	// Path returns displayable path (if applicable)
	Path() string
}

// FileProvenance for filesystem files.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// GitProvenance for blobs read from a git tree.
type GitProvenance struct {
	RepoPath string
	Commit   *CommitInfo // nil when the tree was not reached through a commit
	BlobPath string      // path within repo at commit
}

// Kind returns "git".
func (g GitProvenance) Kind() string {
	return "git"
}

// Path returns the blob path within the repository.
func (g GitProvenance) Path() string {
	return g.BlobPath
}

// CommitInfo is the subset of commit metadata kept alongside git blobs.
type CommitInfo struct {
	CommitID  string
	Author    string
	Timestamp time.Time
}

// InlineProvenance labels text handed in directly (CLI argument, stdin, server request).
type InlineProvenance struct {
	Source string
}

// Kind returns "inline".
func (i InlineProvenance) Kind() string {
	return "inline"
}

// Path returns the caller supplied label.
func (i InlineProvenance) Path() string {
	return i.Source
}
