package ports

// Hasher computes content fingerprints.
//
//go:generate mockgen -destination=mocks/mock_hasher.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeFileHash streams the file at path through the hash.
	ComputeFileHash(path string) (uint64, error)
	// HashBytes hashes an in-memory payload with the same function.
	HashBytes(data []byte) uint64
}
