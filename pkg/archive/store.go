// Package archive stores exported integration archives. Every store keeps a
// single previous generation of an archive under the same name with a ".bak"
// suffix.
package archive

import "context"

// BackupSuffix is appended to the name of the previous generation.
const BackupSuffix = ".bak"

// Store persists archive bytes under a file name.
type Store interface {
	// Save writes data under name. An existing archive with the same name is
	// kept as the backup generation, replacing any older backup.
	Save(ctx context.Context, name string, data []byte) (*SaveResult, error)
}

// SaveResult describes where an archive was written.
type SaveResult struct {
	// Location is the path or object key of the new archive.
	Location string

	// Backup is the location of the previous generation, empty when there
	// was none.
	Backup string
}
