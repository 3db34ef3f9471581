package extract

import "context"

// RawFields is the loosely-typed field map decoded from the model's JSON
// response. It is consumed only by the normalizer; nothing downstream reads
// it unvalidated.
type RawFields map[string]any

// Extraction is the outcome of one extraction attempt. Failures are carried
// in OK/ErrorMessage rather than a Go error: a failed extraction is never
// fatal to the batch.
type Extraction struct {
	OK           bool
	Fields       RawFields
	RawResponse  string
	ErrorMessage string
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	Extract(ctx context.Context, imagePath string) Extraction
}

// Failure builds a failed Extraction with the given message.
func Failure(message string) Extraction {
	return Extraction{OK: false, Fields: RawFields{}, ErrorMessage: message}
}
