package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

type WALEntryID uint64

type WAL interface {
	Append(r *domain.Reading) (WALEntryID, error)
	Iterate(from WALEntryID, fn func(id WALEntryID, r *domain.Reading) error) error
	Commit(upto WALEntryID) error
	TruncateCommitted() error
	Stats() WALStats
	Close() error
}

type WALStats struct {
	OldestUncommitted WALEntryID
	LatestAppended    WALEntryID
	SizeBytes         int64
}
