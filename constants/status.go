package constants

// ProcessingStatus is the canonical per-file outcome recorded on invoices and logs.
type ProcessingStatus string

// Stable values (store these exact strings in the database).
const (
	StatusSuccess ProcessingStatus = "Success"
	StatusError   ProcessingStatus = "Error"
)

// NotFound is the sentinel stored for string fields the extractor could not read.
const NotFound = "Not found"

// ImageURLNotAvailable is recorded on log entries when the upload itself failed,
// so no storage URL exists for the file.
const ImageURLNotAvailable = "N/A"
