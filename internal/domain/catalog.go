package domain

import "time"

// RunStatus is the lifecycle state of a catalogued translation run
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Artifact kinds recorded in the catalog
const (
	ArtifactImage  = "image"  // native image file written by an export
	ArtifactStop   = "stop"   // stop document written by an export
	ArtifactSource = "source" // native image file read by an ingest
)

// Run is one export or ingest invocation recorded in the run catalog
type Run struct {
	UID        string     `json:"uid"`
	Direction  string     `json:"direction"`
	Format     string     `json:"format"`
	Status     RunStatus  `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// ArtifactCount is filled by listings; Artifacts only by single-run reads
	ArtifactCount int        `json:"artifact_count"`
	Artifacts     []Artifact `json:"artifacts,omitempty"`
}

// Artifact is a file a run wrote or read
type Artifact struct {
	RunUID   string `json:"run_uid"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Checksum string `json:"checksum,omitempty"`
	Size     int64  `json:"size"`
}

// NewRun creates a running run started now
func NewRun(direction, format string) *Run {
	return &Run{
		UID:       NewUID(),
		Direction: direction,
		Format:    format,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
}
