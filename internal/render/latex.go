// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

// latexTemplate mirrors the hand-maintained CV snippet this tool
// replaces: a statistics paragraph, the peer-reviewed enumerate, and a
// preprints section.
var latexTemplate = template.Must(template.New("latex").Parse(`{{.Summary.PeerReviewed}} peer-reviewed publications, {{.Summary.FirstAuthor}} papers as first author, {{.Summary.LastAuthor}} papers as last author.
{{if .JournalLine}}These include {{.JournalLine}}.
{{end}}\textbf{h-index: {{.Summary.HIndex}}. Citations: {{.Summary.TotalCitations}}} (Google Scholar, as of {{.Date}}).

\begin{enumerate}
{{range .Papers}} \item \emph{ {{- .Title -}} }.\\
{{"{"}}{{.Authors}}{{"}"}}\\
{{if .URL}}  \href{{"{"}}{{.URL}}{{"}"}}{{"{"}}{{.Venue}} ({{.Year}}){{"}"}}{{else}}  {{.Venue}} ({{.Year}}){{end}}

{{end}}\end{enumerate}
{{if .Preprints}}
\begin{center}
\textsc{Preprints}
\end{center}
\begin{enumerate}
{{range .Preprints}} \item \emph{ {{- .Title -}} }.\\
{{"{"}}{{.Authors}}{{"}"}}\\
{{if .URL}}  \href{{"{"}}{{.URL}}{{"}"}}{{"{"}}{{.Venue}} ({{.Year}}){{"}"}}{{else}}  {{.Venue}} ({{.Year}}){{end}}

{{end}}\end{enumerate}
{{end}}`))

type latexRenderer struct {
	cfg types.ReportConfig
}

func (r *latexRenderer) Render(w io.Writer, ordered []types.Publication, summary types.ReportSummary, vs types.VariantSet) error {
	data := buildData(ordered, summary, vs, r.cfg, EscapeLaTeX, boldLaTeX)
	return latexTemplate.Execute(w, data)
}

func boldLaTeX(s string) string {
	return `\textbf{` + s + `}`
}

// latexReplacer escapes the characters LaTeX treats specially. The
// backslash goes through a placeholder so replacement output is not
// re-escaped.
var latexReplacer = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// EscapeLaTeX escapes text for inclusion in a LaTeX document.
func EscapeLaTeX(s string) string {
	const marker = "\x00"
	s = strings.ReplaceAll(s, `\`, marker)
	s = latexReplacer.Replace(s)
	return strings.ReplaceAll(s, marker, `\textbackslash{}`)
}
