package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Cleaner removes the stored attachments of a message. Group deletion walks
// every message in the group through this hook so the chat core never talks
// to a concrete file store directly.
type Cleaner interface {
	RemoveMessageFolder(ctx context.Context, groupID, messageID uint64) error
}

// DiskCleaner removes message folders from a local upload root. Attachments
// are stored under <root>/groups/<groupID>/messages/<messageID>/.
type DiskCleaner struct {
	Root string
}

// NewDiskCleaner creates a disk-backed cleaner
func NewDiskCleaner(root string) *DiskCleaner {
	return &DiskCleaner{Root: root}
}

// RemoveMessageFolder removes the message's attachment folder
func (c *DiskCleaner) RemoveMessageFolder(ctx context.Context, groupID, messageID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(c.Root, "groups", fmt.Sprint(groupID), "messages", fmt.Sprint(messageID))
	return os.RemoveAll(dir)
}

// NopCleaner discards cleanup requests. Used in tests and when uploads are
// disabled.
type NopCleaner struct{}

// RemoveMessageFolder does nothing
func (NopCleaner) RemoveMessageFolder(ctx context.Context, groupID, messageID uint64) error {
	return nil
}
