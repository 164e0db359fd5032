package entity

// StoreOp tells the challenge store what to do with the entry returned by
// an update function.
type StoreOp int

const (
	// OpKeep leaves the current entry untouched.
	OpKeep StoreOp = iota
	// OpPut stores the returned entry.
	OpPut
	// OpDelete removes the entry.
	OpDelete
)
