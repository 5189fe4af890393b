package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/semmidev/vigil/internal/domain"
)

const reportTitle = "Database Backup Report"

// GenerateReport renders the results of one run in input order. The
// output depends only on its arguments.
func GenerateReport(results []domain.Result, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s - %s\n", reportTitle, at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Success: %d/%d\n\n", countSucceeded(results), len(results))

	for _, r := range results {
		fmt.Fprintf(&b, "Database: %s\n", r.Source)
		if r.Success {
			b.WriteString("Status: SUCCESS\n")
			fmt.Fprintf(&b, "Backup saved to: %s\n", r.ArtifactPath)
			if len(r.Mirrors) > 0 {
				fmt.Fprintf(&b, "Copied to: %s\n", strings.Join(r.Mirrors, ", "))
			}
		} else {
			b.WriteString("Status: FAILED\n")
			fmt.Fprintf(&b, "Error: %s\n", r.Message())
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Subject ends in SUCCESS only when every result succeeded.
func Subject(results []domain.Result) string {
	if countSucceeded(results) == len(results) {
		return reportTitle + " - SUCCESS"
	}
	return reportTitle + " - FAILED"
}

func countSucceeded(results []domain.Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
