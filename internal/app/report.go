package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"shardci/internal/supervisor"
	"shardci/pkg/manifest"
)

const (
	ReportFileName      = ".shardci.report.json"
	ReportSchemaVersion = "1.0"
)

// RunReport is the persisted record of one test run, retained for
// diagnostics so individual group outcomes stay inspectable after the
// aggregate verdict is delivered.
type RunReport struct {
	SchemaVersion  string            `json:"schema_version"`
	RunID          string            `json:"run_id"`
	ManifestPath   string            `json:"manifest_path"`
	Name           string            `json:"name"`
	Team           string            `json:"team"`
	Image          string            `json:"image"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Groups         []GroupReport     `json:"groups"`
	OverallSuccess bool              `json:"overall_success"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// GroupReport records the terminal state of one partition's container.
type GroupReport struct {
	Partition int      `json:"partition"`
	Targets   []string `json:"targets"`
	ExitCode  int      `json:"exit_code"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
}

// newReport creates the report skeleton at run start.
func newReport(runID, manifestPath string, m *manifest.Manifest) *RunReport {
	return &RunReport{
		SchemaVersion: ReportSchemaVersion,
		RunID:         runID,
		ManifestPath:  manifestPath,
		Name:          m.Metadata.Name,
		Team:          m.Metadata.Team,
		Image:         m.Spec.Image.Ref(),
		StartedAt:     time.Now(),
		Labels:        m.Metadata.Labels,
	}
}

// finish records the per-group outcomes and the overall verdict. A nil
// result set (e.g. the prepare stage failed before any launch) leaves the
// groups empty with a failed verdict.
func (r *RunReport) finish(results []supervisor.RunResult, overall bool) {
	r.FinishedAt = time.Now()
	r.OverallSuccess = overall

	for _, result := range results {
		group := GroupReport{
			Partition: result.Partition,
			ExitCode:  result.ExitCode,
			Success:   result.Success(),
		}
		if result.Err != nil {
			group.Error = result.Err.Error()
		}
		r.Groups = append(r.Groups, group)
	}
}

// attachTargets copies each partition's target list into the report so a
// failing group can be re-run by hand.
func (r *RunReport) attachTargets(partitions [][]string) {
	for i := range r.Groups {
		if r.Groups[i].Partition < len(partitions) {
			r.Groups[i].Targets = partitions[r.Groups[i].Partition]
		}
	}
}

// saveReport persists the run report next to the working directory.
func saveReport(report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	if err := os.WriteFile(ReportFileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}

	return nil
}

// LoadReport reads a previously written run report. Returns nil without
// error when no report exists.
func LoadReport() (*RunReport, error) {
	if _, err := os.Stat(ReportFileName); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(ReportFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}

	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &report, nil
}
