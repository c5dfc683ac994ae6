package models

// WriteResult mirrors the acknowledgement documents the web client already
// inspects after mutations.
type WriteResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	InsertedID    string `json:"insertedId,omitempty"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
	DeletedCount  int64  `json:"deletedCount"`
}

// Inserted acknowledges a single insert.
func Inserted(id string) *WriteResult {
	return &WriteResult{Acknowledged: true, InsertedID: id}
}

// Deleted acknowledges a delete of n rows.
func Deleted(n int64) *WriteResult {
	return &WriteResult{Acknowledged: true, DeletedCount: n}
}
