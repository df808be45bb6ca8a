// ABOUTME: Task start and finish record files written into the output directory.
// ABOUTME: Also finds and reads back the most recent records for status queries.
package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/2389-research/ppiembed/internal/models"
)

// TaskStartPath returns the start record location for a record key. The key is
// the run's start second, bumped past keys taken by earlier runs in outdir.
func TaskStartPath(outdir string, key int64) string {
	return filepath.Join(outdir, fmt.Sprintf("task_%d_start.json", key))
}

// TaskFinishPath returns the finish record location for a record key.
func TaskFinishPath(outdir string, key int64) string {
	return filepath.Join(outdir, fmt.Sprintf("task_%d_finish.json", key))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// TaskStatus is the state of the latest run recorded in an output directory.
// Finish is nil while the run is still in progress or if it died without finalizing.
type TaskStatus struct {
	Start  *models.TaskStart  `json:"start"`
	Finish *models.TaskFinish `json:"finish,omitempty"`
}

// ReadTaskStatus reads the most recent task records in outdir.
func ReadTaskStatus(outdir string) (*TaskStatus, error) {
	matches, err := filepath.Glob(filepath.Join(outdir, "task_*_start.json"))
	if err != nil {
		return nil, err
	}
	var starts []int64
	for _, m := range matches {
		raw := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "task_"), "_start.json")
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			starts = append(starts, ts)
		}
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("no task records in %s", outdir)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] > starts[j] })
	latest := starts[0]

	status := &TaskStatus{Start: &models.TaskStart{}}
	if err := readJSON(TaskStartPath(outdir, latest), status.Start); err != nil {
		return nil, err
	}
	finish := &models.TaskFinish{}
	if err := readJSON(TaskFinishPath(outdir, latest), finish); err == nil {
		status.Finish = finish
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return status, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
