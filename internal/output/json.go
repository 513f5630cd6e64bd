package output

import (
	"encoding/json"

	"github.com/askboxhq/askbox/internal/core"
)

// JSONFormatter renders usage reports as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatUsage renders a usage report as JSON.
func (f *JSONFormatter) FormatUsage(report *core.DayUsage) (string, error) {
	if report == nil {
		return "null", nil
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
