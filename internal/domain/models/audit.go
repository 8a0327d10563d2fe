package models

import "time"

// SubmissionAudit records one accepted batch in the audit store.
type SubmissionAudit struct {
	BatchID   string    `bson:"batch_id" json:"batch_id"`
	File      string    `bson:"file" json:"file"`
	Count     int       `bson:"count" json:"count"`
	FirstID   int       `bson:"first_id" json:"first_id"`
	LastID    int       `bson:"last_id" json:"last_id"`
	Names     []string  `bson:"names" json:"names"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
