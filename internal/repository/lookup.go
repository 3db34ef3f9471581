package repository

// LookupStatus discriminates the three outcomes of a single-document lookup.
// "Not found" is an expected answer, not an error; Fault is reserved for
// storage failures.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupFault
)

// Lookup is the uniform result type for all single-record reads.
type Lookup[T any] struct {
	Status LookupStatus
	Record T
	Err    error
}

func Found[T any](record T) Lookup[T] {
	return Lookup[T]{Status: LookupFound, Record: record}
}

func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: LookupNotFound}
}

func Fault[T any](err error) Lookup[T] {
	return Lookup[T]{Status: LookupFault, Err: err}
}
