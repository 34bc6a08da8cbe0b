package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/swfsim/swfsim/sim"
)

// writeReport prints a single run's report, as a JSON object when asJSON is set.
func writeReport(w io.Writer, report *sim.Report, asJSON bool) error {
	if !asJSON {
		report.Print(w)
		return nil
	}
	data, err := report.JSON()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeReports prints sweep reports either as human-readable blocks or as a
// JSON array, whatever the number of reports.
func writeReports(w io.Writer, reports []*sim.Report, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding reports: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		r.Print(w)
	}
	return nil
}
