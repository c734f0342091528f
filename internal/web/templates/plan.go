// Package templates holds the HTML components of the preview server.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
)

const style = `body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse}
td,th{padding:.2em .8em;text-align:left}
.failed{color:#b00}.ok{color:#070}.muted{color:#777}`

// PlanPage renders a dry-run plan: one table per county listing each new
// district and the old districts it absorbs.
func PlanPage(e *lgro.Event, s lgro.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		title := fmt.Sprintf("Local Government Reorganization %d", e.Year)

		fmt.Fprintf(&b, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), style)
		fmt.Fprintf(&b, "<h1>%s</h1>", templ.EscapeString(title))
		fmt.Fprintf(&b, "<p class=\"muted\">Inaugurated %s. Predecessors abolished %s.</p>",
			e.InaugurationDate().Format("2 January 2006"), e.AbolitionDate().Format("2 January 2006"))

		for _, c := range e.Counties {
			writeCounty(&b, c)
		}

		fmt.Fprintf(&b, "<h2>Summary</h2><p>Would create %d, abolish %d. %d existing, %d skipped, %d failed.</p>",
			len(s.Created), len(s.Abolished), len(s.Existing), len(s.Skipped), len(s.Failed))
		b.WriteString("</body></html>")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeCounty(b *strings.Builder, c *lgro.County) {
	fmt.Fprintf(b, "<h2>%s", templ.EscapeString(c.Name))
	if c.ID != 0 {
		fmt.Fprintf(b, " <span class=\"muted\">(%d)</span>", c.ID)
	}
	b.WriteString("</h2>")
	if c.Err != nil {
		fmt.Fprintf(b, "<p class=\"failed\">%s</p>", templ.EscapeString(lgro.FormatUserError(c.Err)))
	}

	b.WriteString("<table><tr><th>District</th><th>Id</th><th>State</th><th>Note</th></tr>")
	for _, nd := range c.NewDistricts {
		id := nd.ID
		if id == 0 {
			id = nd.PlannedID
		}
		row(b, "<strong>"+templ.EscapeString(nd.Name)+"</strong>", id, nd.State, nd.Err)
		for _, od := range nd.OldDistricts {
			row(b, "&nbsp;&nbsp;&#8627; "+templ.EscapeString(od.Name), od.ID, od.State, od.Err)
		}
	}
	b.WriteString("</table>")
}

func row(b *strings.Builder, name string, id int, state lgro.State, err error) {
	class := "ok"
	note := ""
	if err != nil {
		class = "failed"
		note = templ.EscapeString(lgro.FormatUserError(err))
	}
	idText := ""
	if id != 0 {
		idText = fmt.Sprint(id)
	}
	fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td class=\"%s\">%s</td><td>%s</td></tr>",
		name, idText, class, state, note)
}

// ErrorPage renders a catalogue message as a standalone page.
func ErrorPage(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			"<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Error</title></head><body><h1>%s</h1><p>%s</p><p class=\"muted\">Code: %s</p></body></html>",
			templ.EscapeString(message), templ.EscapeString(action), templ.EscapeString(code))
		return err
	})
}
