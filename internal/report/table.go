// Package report renders comparison results as text and plots.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/regressionfit/internal/compare"
)

// WriteTable writes the per-parameter estimates followed by a per-run
// summary. Estimate columns follow r.Outcomes.
func WriteTable(w io.Writer, r *compare.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := append([]string{"PARAMETER", "TRUE", "OLS"}, upper(r.Columns())...)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(dashes(headers), "\t"))

	for _, row := range r.Rows {
		cells := []string{row.Parameter, formatFloat(row.True), formatFloat(row.OLS)}
		for _, v := range row.Estimates {
			cells = append(cells, formatFloat(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return WriteSummary(w, r)
}

// WriteSummary writes one line per strategy with its log-likelihood and
// search statistics.
func WriteSummary(w io.Writer, r *compare.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tSENSE\tLOG-LIKELIHOOD\tITERATIONS\tEVALUATIONS\tDEGENERATE\tSTABILIZED\tELAPSED")
	fmt.Fprintln(tw, "--------\t-----\t--------------\t----------\t-----------\t----------\t----------\t-------")
	fmt.Fprintf(tw, "ols\t-\t%.4f\t-\t-\t-\t-\t-\n", r.OLSLogLikelihood)

	for _, o := range r.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%d\t%d\t%d\t%t\t%s\n",
			o.Name,
			o.Sense,
			o.LogLikelihood,
			o.Result.Iterations,
			o.Result.Evaluations,
			o.Result.Degenerate,
			o.Result.Stabilized,
			o.Result.Elapsed.Round(time.Millisecond),
		)
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func upper(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(n)
	}
	return out
}

func dashes(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.Repeat("-", len(h))
	}
	return out
}
