package store

import (
	"errors"
	"time"
)

// Snapshot is a persisted assessment run. Payload holds the JSON document.
type Snapshot struct {
	ID              string
	SourceTimestamp time.Time
	CreatedAt       time.Time
	SchemaVersion   int
	AssignmentCount int
	ExemptionCount  int
	TestCount       int
	Payload         []byte
}

// SnapshotHeader is a snapshot without its payload.
type SnapshotHeader struct {
	ID              string
	SourceTimestamp time.Time
	CreatedAt       time.Time
	SchemaVersion   int
	AssignmentCount int
	ExemptionCount  int
	TestCount       int
}

func (s Snapshot) Header() SnapshotHeader {
	return SnapshotHeader{
		ID:              s.ID,
		SourceTimestamp: s.SourceTimestamp,
		CreatedAt:       s.CreatedAt,
		SchemaVersion:   s.SchemaVersion,
		AssignmentCount: s.AssignmentCount,
		ExemptionCount:  s.ExemptionCount,
		TestCount:       s.TestCount,
	}
}

var ErrSnapshotNotFound = errors.New("snapshot not found")
