// ABOUTME: Task start and finish records written around each embedding run.
// ABOUTME: Records timestamps, tool version, effective configuration, and exit status.
package models

// TaskStart is serialized to task_<start>_start.json before computation begins.
type TaskStart struct {
	StartTime       int64          `json:"start_time"`
	Version         string         `json:"version"`
	Login           string         `json:"login"`
	Cwd             string         `json:"cwd"`
	CommandLineArgs map[string]any `json:"commandlineargs"`
}

// TaskFinish is serialized to task_<start>_finish.json on every exit path.
type TaskFinish struct {
	StartTime       int64          `json:"start_time"`
	EndTime         int64          `json:"end_time"`
	ElapsedTime     int64          `json:"elapsed_time"`
	Status          int            `json:"status"`
	Version         string         `json:"version"`
	CommandLineArgs map[string]any `json:"commandlineargs"`
}
