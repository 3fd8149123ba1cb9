package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/orthologs/pkg/model"
)

func renderPage(t *testing.T, data SearchPageData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderSearchPage(&buf, data))
	return buf.String()
}

func TestRenderSearchPage_MatchCards(t *testing.T) {
	rec := model.OrthologRecord{
		SC: &model.SCGene{GeneRecord: model.GeneRecord{
			ID:          "YAL001C",
			Name:        "TFC3",
			Description: "transcription factor",
			Locus:       &model.Locus{Chromosome: "I", Start: "147594", End: "151166", Strand: "-"},
			ExternalLinks: map[string]string{
				"sgd":     "https://www.yeastgenome.org/locus/YAL001C",
				"uniprot": "",
			},
		}},
		KM: &model.KMGene{GeneRecord: model.GeneRecord{IDs: []string{"KM_045"}}},
	}
	pair := model.Resolve("YAL001C", rec)

	out := renderPage(t, SearchPageData{Query: "YAL001C", Searched: true, Count: 1, Match: &pair})

	assert.Contains(t, out, "<h2>S. cerevisiae</h2>")
	assert.Contains(t, out, "ID: YAL001C")
	assert.Contains(t, out, "Gene name: TFC3")
	assert.Contains(t, out, "Locus: Chr I | 147594 - 151166 (-)")
	assert.Contains(t, out, `href="https://www.yeastgenome.org/locus/YAL001C"`)
	assert.Contains(t, out, ">sgd</a>")
	assert.NotContains(t, out, "uniprot")

	assert.Contains(t, out, "Ortholog: K. marxianus")
	assert.Contains(t, out, "ID: KM_045")
	assert.Contains(t, out, "Found 1 entries")
	// The KM gene has no name, so only the SC card shows one.
	assert.Equal(t, 1, strings.Count(out, "Gene name:"))
}

func TestRenderSearchPage_NoResults(t *testing.T) {
	out := renderPage(t, SearchPageData{Query: "nonexistent_gene_zzz", Searched: true})
	assert.Contains(t, out, "No results found")
	assert.NotContains(t, out, "class=\"card")
}

func TestRenderSearchPage_Error(t *testing.T) {
	out := renderPage(t, SearchPageData{Query: "abc", Searched: true, ErrorMessage: "connection refused"})
	assert.Contains(t, out, "Error during search")
	assert.Contains(t, out, "Error: connection refused")
	assert.NotContains(t, out, "No results found")
}

func TestRenderSearchPage_EscapesQuery(t *testing.T) {
	out := renderPage(t, SearchPageData{Query: `"><script>alert(1)</script>`})
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, "No results found")
}
