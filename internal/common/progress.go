package common

import (
	"github.com/google/uuid"
)

// Progress is a point-in-time snapshot of a download's advancement. It is
// intentionally a plain value: successive snapshots need not be strictly
// monotonic in Speed, but DownloadedBytes is monotonic non-decreasing for
// the lifetime of a single download.
type Progress struct {
	DownloadID        uuid.UUID
	Status            Status
	DownloadedBytes   int64
	TotalBytes        int64
	SpeedBps          int64
	ActiveConnections int
}

// Callback is invoked from worker goroutines to report progress. The engine
// imposes a minimum 100ms-per-worker spacing between calls, but makes no
// global rate or ordering guarantee across workers — implementations must
// be safe to call concurrently from multiple goroutines.
type Callback func(Progress)
