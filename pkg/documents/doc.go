// Package documents stores uploaded files: contracts, proposals and photos
// attached to clients. Metadata lives in the database; the bytes live in a
// pluggable blob store with filesystem and S3 backends.
package documents
