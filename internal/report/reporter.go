// Package report renders a finished batch report for the user. Rendering is
// a pure function of the report; nothing here mutates it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/digibook/digimonitor/internal/model"
)

// Format selects a report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", eris.Errorf("unknown report format %q (text, json, yaml)", s)
	}
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *model.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return eris.Wrap(enc.Encode(r), "report: encode yaml")
	default:
		return writeText(w, r)
	}
}

// WriteFile writes the encoded report to path.
func WriteFile(path string, r *model.Report, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()
	return Write(f, r, format)
}

func writeText(w io.Writer, r *model.Report) error {
	status := "completed"
	if r.Cancelled {
		status = "cancelled"
	}
	fmt.Fprintf(w, "Batch %s: platform=%s succeeded=%d failed=%d total=%d elapsed=%s\n",
		status, r.Platform, r.Succeeded, r.Failed, r.Total,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)

	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nFailures:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tURL\tCLASS\tATTEMPTS\tREASON")
	for _, o := range failures {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			o.Target.Index, o.Target.URL, o.Failure, o.Attempts, o.Reason)
	}
	return tw.Flush()
}
