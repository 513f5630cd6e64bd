package output

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/askboxhq/askbox/internal/core"
)

// TableFormatter renders usage reports as an ASCII table.
type TableFormatter struct{}

// FormatUsage renders a day's usage as a table, one row per question.
func (f *TableFormatter) FormatUsage(report *core.DayUsage) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Usage for %s", report.Day))
	t.AppendHeader(table.Row{"Question", "Summaries"})

	questionIDs := make([]string, 0, len(report.ByQuestion))
	for id := range report.ByQuestion {
		questionIDs = append(questionIDs, id)
	}
	sort.Strings(questionIDs)

	for _, id := range questionIDs {
		t.AppendRow(table.Row{id, report.ByQuestion[id]})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d requests", report.TotalRequests),
		fmt.Sprintf("%d tokens", report.TotalTokens),
	})

	return t.Render(), nil
}
