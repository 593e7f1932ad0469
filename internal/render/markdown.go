// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

var markdownTemplate = template.Must(template.New("markdown").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`# Publications — {{.CanonicalName}}

{{.Summary.PeerReviewed}} peer-reviewed publications, {{.Summary.FirstAuthor}} as first author, {{.Summary.LastAuthor}} as last author.
{{if .JournalLine}}These include {{.JournalLine}}.
{{end}}**h-index: {{.Summary.HIndex}}. Citations: {{.Summary.TotalCitations}}** (Google Scholar, as of {{.Date}}).

## Peer-reviewed

{{range $i, $e := .Papers}}{{inc $i}}. *{{$e.Title}}*. {{$e.Authors}}. {{if $e.URL}}[{{$e.Venue}} ({{$e.Year}})]({{$e.URL}}){{else}}{{$e.Venue}} ({{$e.Year}}){{end}}{{if $e.Cites}} — cited {{$e.Cites}} times{{end}}.
{{end}}{{if .Preprints}}
## Preprints

{{range $i, $e := .Preprints}}{{inc $i}}. *{{$e.Title}}*. {{$e.Authors}}. {{if $e.URL}}[{{$e.Venue}} ({{$e.Year}})]({{$e.URL}}){{else}}{{$e.Venue}} ({{$e.Year}}){{end}}.
{{end}}{{end}}`))

type markdownRenderer struct {
	cfg types.ReportConfig
}

func (r *markdownRenderer) Render(w io.Writer, ordered []types.Publication, summary types.ReportSummary, vs types.VariantSet) error {
	data := buildData(ordered, summary, vs, r.cfg, EscapeMarkdown, boldMarkdown)
	return markdownTemplate.Execute(w, data)
}

func boldMarkdown(s string) string {
	return "**" + s + "**"
}

// markdownReplacer escapes the inline markers that publication titles
// realistically contain; full CommonMark escaping is not needed for
// plain metadata text.
var markdownReplacer = strings.NewReplacer(
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
)

// EscapeMarkdown escapes text for inclusion in a Markdown document.
func EscapeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}
