package render

import (
	"html/template"
	"io"

	"go.uber.org/zap"

	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/model"
)

var search_page_template *template.Template

// SearchPageData is everything the search page can show. Match is nil when
// nothing was searched, nothing was found or the search failed.
type SearchPageData struct {
	Query        string
	Searched     bool
	Count        int
	Match        *model.MatchPair
	ErrorMessage string
}

func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
	    <title>Yeast Gene Search</title>
	    <style>
	    .card { width: 75%; padding: 1.5rem; margin-bottom: 1rem; box-shadow: 0 2px 6px rgba(0,0,0,.2); }
	    .ortholog { background: #f9fafb; }
	    .error { color: #ef4444; }
	    .links a { margin-right: .75rem; }
	    </style>
	</head>
	<body>
		<h1>Yeast Gene Search</h1>
		<form method="get" action="/search">
			<label for="q">SC or KM gene</label>
			<input id="q" name="q" value="{{ .Query }}">
			<button type="submit">Search</button>
		</form>
		{{ if .ErrorMessage }}
			<p class="error">Error during search</p>
			<p class="status">Error: {{ .ErrorMessage }}</p>
		{{ else if .Match }}
			{{ template "gene" (card .Match.SubjectSpecies .Match.Subject false) }}
			{{ with .Match.Ortholog }}
			<hr>
			{{ template "gene" (card (printf "Ortholog: %s" $.Match.OrthologSpecies) . true) }}
			{{ end }}
			<p class="status">Found {{ .Count }} entries</p>
		{{ else if .Searched }}
			<p class="error">No results found</p>
		{{ end }}
	</body>
	</html>`

	geneTmpl := `
	{{ define "gene" }}
	<div class="card{{ if .Ortholog }} ortholog{{ end }}">
		<h2>{{ .Title }}</h2>
		<p>ID: {{ .Gene.ID }}</p>
		{{ with .Gene.Name }}<p>Gene name: {{ . }}</p>{{ end }}
		{{ with .Gene.Description }}<p>Description: {{ . }}</p>{{ end }}
		{{ with .Gene.Locus }}<p>Locus: Chr {{ .Chromosome }} | {{ .Start }} - {{ .End }} ({{ .Strand }})</p>{{ end }}
		{{ with .Gene.Links }}
		<div class="links">
			{{ range . }}<a href="{{ .URL }}" target="_blank" rel="noopener">{{ .Label }}</a>{{ end }}
		</div>
		{{ end }}
	</div>
	{{ end }}`

	search_page_template = template.New("search_page").Funcs(template.FuncMap{
		"card": func(title string, gene any, ortholog bool) geneCard {
			c := geneCard{Title: title, Ortholog: ortholog}
			switch g := gene.(type) {
			case model.GeneView:
				c.Gene = g
			case *model.GeneView:
				c.Gene = *g
			}
			return c
		},
	})
	search_page_template = template.Must(search_page_template.Parse(mainTmpl))
	search_page_template = template.Must(search_page_template.Parse(geneTmpl))
}

type geneCard struct {
	Title    string
	Gene     model.GeneView
	Ortholog bool
}

// RenderSearchPage writes the search form and, when present, the match cards.
func RenderSearchPage(w io.Writer, data SearchPageData) error {
	logger.Debug("Rendering search page",
		zap.String("query", data.Query),
		zap.Int("count", data.Count),
		zap.Bool("matched", data.Match != nil))
	return search_page_template.Execute(w, data)
}
