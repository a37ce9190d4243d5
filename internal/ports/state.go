package ports

// LiveStore keeps the latest sample per device plus a bounded history.
// Version increases on every mutation so derived results can be invalidated.
type LiveStore[T any] interface {
	Apply(id string, v T)
	Current(id string) (T, bool)
	History(id string) []T
	Snapshot() map[string]T
	Forget(id string)
	Version() uint64
}
