package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// Stats prints the API client's counters: requests by outcome, replays and
// token refreshes by result.
func (a *App) Stats(_ context.Context) error {
	families, err := a.metrics.Gather()
	if err != nil {
		return err
	}
	for _, line := range statLines(families) {
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func statLines(families []*dto.MetricFamily) []string {
	var lines []string
	for _, mf := range families {
		name := strings.TrimPrefix(mf.GetName(), "chat_client_")
		for _, m := range mf.GetMetric() {
			label := name
			if len(m.GetLabel()) > 0 {
				pairs := make([]string, 0, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					pairs = append(pairs, lp.GetValue())
				}
				label += "{" + strings.Join(pairs, ",") + "}"
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%-40s %g", label, m.GetCounter().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				avg := 0.0
				if h.GetSampleCount() > 0 {
					avg = h.GetSampleSum() / float64(h.GetSampleCount())
				}
				lines = append(lines, fmt.Sprintf("%-40s count=%d avg=%.3fs", label, h.GetSampleCount(), avg))
			}
		}
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		lines = append(lines, "No requests made yet.")
	}
	return lines
}
