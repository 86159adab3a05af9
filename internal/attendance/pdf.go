package attendance

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// reportHTML builds the standalone document Gotenberg converts to PDF.
func reportHTML(batchID int64, rows []ReportRow, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(`<!doctype html><html><head><meta charset="utf-8"><style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 6px 10px; text-align: left; }
th { background: #eee; }
</style></head><body>`)
	fmt.Fprintf(&b, "<h1>Attendance Report for Batch %d</h1>", batchID)
	fmt.Fprintf(&b, "<p>Generated %s</p>", generatedAt.Format("02 Jan 2006 15:04"))
	b.WriteString("<table><thead><tr><th>Student</th><th>Student ID</th><th>Present</th><th>Sessions</th><th>Rate</th></tr></thead><tbody>")
	for _, row := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%.1f%%</td></tr>",
			html.EscapeString(row.Name), html.EscapeString(row.StudentID), row.Present, row.Total, row.Rate())
	}
	if len(rows) == 0 {
		b.WriteString(`<tr><td colspan="5">No attendance recorded.</td></tr>`)
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}
