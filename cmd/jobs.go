package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/taskcore/internal/config"
)

// jobView mirrors scheduler.Job's JSON shape without importing the
// scheduler package — this subcommand talks to a running server over HTTP,
// it never touches the scheduler directly (jobs are in-memory only and
// only the owning process can see them; see SPEC_FULL.md's data model).
type jobView struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	ArtifactID  *string    `json:"artifact_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// NewJobsCmd returns the "jobs" subcommand: a read-only listing of jobs
// fetched from a running server's HTTP API.
func NewJobsCmd(cfg *config.AppConfig) *cobra.Command {
	var statusFilter string
	var port int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs known to a running taskcore server",
		RunE: func(_ *cobra.Command, _ []string) error {
			p := cfg.Port
			if port != 0 {
				p = port
			}
			return listJobs(p, statusFilter)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by job status (pending, running, completed, failed, canceled)")
	cmd.Flags().IntVar(&port, "port", 0, "Port of a running taskcore server (defaults to the configured port)")

	return cmd
}

func listJobs(port int, statusFilter string) error {
	url := fmt.Sprintf("http://localhost:%d/jobs", port)
	if statusFilter != "" {
		url += "?status_filter=" + statusFilter
	}

	resp, err := http.Get(url) //nolint:gosec // operator-supplied localhost port, not user input
	if err != nil {
		return fmt.Errorf("querying %s: %w (is the server running?)", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var jobs []jobView
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("no jobs")
		return nil
	}

	header := tableHeaderStyle()
	fmt.Fprintln(os.Stdout, header.Render(padRight("ID", 28)+padRight("STATUS", 12)+padRight("SUBMITTED", 16)+"DURATION"))
	for _, j := range jobs {
		fmt.Fprintln(os.Stdout, padRight(j.ID, 28)+padRight(j.Status, 12)+padRight(humanize.Time(j.SubmittedAt), 16)+jobDuration(j))
	}
	return nil
}

func jobDuration(j jobView) string {
	if j.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	return humanize.RelTime(*j.StartedAt, end, "", "")
}
