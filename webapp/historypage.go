package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// HistoryPage lists recent conversions from the job history
type HistoryPage struct {
	app.Compo
	jobs          []Job
	loading       bool
	disabled      bool
	error         string
	autoRefresh   bool
	refreshTicker *time.Ticker
}

// OnMount is called when the component is mounted
func (h *HistoryPage) OnMount(ctx app.Context) {
	h.autoRefresh = true
	h.loadJobs(ctx)

	// Start auto-refresh every 5 seconds
	ctx.Async(func() {
		h.refreshTicker = time.NewTicker(5 * time.Second)
		for range h.refreshTicker.C {
			if h.autoRefresh && !h.disabled {
				ctx.Dispatch(func(ctx app.Context) {
					h.loadJobs(ctx)
				})
			}
		}
	})
}

// OnDismount is called when the component is unmounted
func (h *HistoryPage) OnDismount() {
	if h.refreshTicker != nil {
		h.refreshTicker.Stop()
	}
}

// Render renders the history page
func (h *HistoryPage) Render() app.UI {
	return app.Div().
		Class("history-page").
		Body(
			app.H2().Text("Conversion History"),
			app.P().Text("Recent conversions from this server, newest first."),

			app.Div().Class("history-controls").Body(
				app.Button().
					Class("btn-primary").
					OnClick(h.onRefreshClick).
					Disabled(h.loading).
					Body(app.Text("Refresh")),
				app.Label().Class("auto-refresh-label").Body(
					app.Input().
						Type("checkbox").
						Checked(h.autoRefresh).
						OnChange(h.onAutoRefreshChange),
					app.Text(" Auto-refresh"),
				),
			),

			h.renderStatus(),
		)
}

// renderStatus renders the jobs list or status messages
func (h *HistoryPage) renderStatus() app.UI {
	if h.loading && len(h.jobs) == 0 {
		return app.Div().Class("loading").Body(
			app.Text("Loading history..."),
		)
	}

	if h.disabled {
		return app.Div().Class("info").Body(
			app.P().Text("Job history is disabled on this server."),
		)
	}

	if h.error != "" {
		return app.Div().Class("error").Body(
			app.Text("Error: " + h.error),
		)
	}

	if len(h.jobs) == 0 {
		return app.Div().Class("info").Body(
			app.P().Text("No conversions yet. Upload a PDF on the Convert page to create one."),
		)
	}

	items := make([]app.UI, 0, len(h.jobs))
	for i := range h.jobs {
		items = append(items, h.renderJob(&h.jobs[i]))
	}
	return app.Div().Class("jobs-list").Body(items...)
}

// renderJob renders a single job card
func (h *HistoryPage) renderJob(job *Job) app.UI {
	return app.Div().
		Class("job-card job-"+job.Status).
		Body(
			app.Div().Class("job-header").Body(
				app.Div().Class("job-type").Body(
					app.Strong().Text(job.Document),
					app.Span().Class("job-status-badge job-status-"+job.Status).
						Body(app.Text(job.Status)),
				),
				app.Div().Class("job-time").Body(
					app.Text(formatTime(job.CreatedAt, time.Now())),
				),
			),

			app.Div().Class("job-details").Body(
				app.Text(formatJobDetails(job)),
			),

			app.If(job.Message != "", func() app.UI {
				return app.Div().Class("job-message").Body(
					app.Text(job.Message),
				)
			}),

			app.If(job.Error != "", func() app.UI {
				return app.Div().Class("job-error").Body(
					app.Strong().Text("Error: "),
					app.Text(job.Error),
				)
			}),

			app.Div().Class("job-footer").Body(
				app.Div().Class("job-id").Body(
					app.Text("ID: " + job.ID),
				),
			),
		)
}

// formatJobType converts job type to readable format
func formatJobType(jobType string) string {
	switch jobType {
	case "interactive":
		return "Web upload"
	case "batch":
		return "Batch run"
	default:
		return jobType
	}
}

// formatJobDetails summarises resolution, page count and duration
func formatJobDetails(job *Job) string {
	dpi := fmt.Sprintf("%d DPI", job.EffectiveDPI)
	if job.RequestedDPI != job.EffectiveDPI {
		dpi = fmt.Sprintf("%d DPI (requested %d)", job.EffectiveDPI, job.RequestedDPI)
	}
	details := formatJobType(job.Type) + " | " + dpi
	if job.Status == "completed" {
		details += fmt.Sprintf(" | %d pages", job.Pages)
	}
	if job.DurationMS > 0 {
		details += " | " + (time.Duration(job.DurationMS) * time.Millisecond).Round(10*time.Millisecond).String()
	}
	return details
}

// formatTime formats ISO time string to readable format
func formatTime(timeStr string, now time.Time) string {
	if timeStr == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339Nano, timeStr)
	if err != nil {
		return timeStr
	}

	diff := now.Sub(t)
	if diff < time.Minute {
		return "Just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	return t.Format("Jan 2, 2006 at 3:04 PM")
}

// onRefreshClick handles the refresh button click
func (h *HistoryPage) onRefreshClick(ctx app.Context, e app.Event) {
	h.loadJobs(ctx)
}

// onAutoRefreshChange handles auto-refresh checkbox change
func (h *HistoryPage) onAutoRefreshChange(ctx app.Context, e app.Event) {
	h.autoRefresh = ctx.JSSrc().Get("checked").Bool()
	ctx.Update()
}

// loadJobs fetches jobs from the API
func (h *HistoryPage) loadJobs(ctx app.Context) {
	h.loading = true
	h.error = ""
	ctx.Update()

	fetchJSON(ctx, BuildAPIURL("/api/jobs?limit=50"), nil, func(ctx app.Context, status int, body string) {
		h.loading = false
		switch {
		case status == http.StatusServiceUnavailable:
			h.disabled = true
		case status >= 200 && status < 300:
			var jobs []Job
			if err := json.Unmarshal([]byte(body), &jobs); err != nil {
				h.error = "Failed to parse jobs: " + err.Error()
			} else {
				h.jobs = jobs
			}
		default:
			h.error = fmt.Sprintf("Failed to load history (status: %d)", status)
		}
		ctx.Update()
	}, func(ctx app.Context) {
		h.loading = false
		h.error = "Network error: Could not connect to server"
		ctx.Update()
	})
}
