package model

import (
	"sort"
	"strings"
)

type Species int

const (
	SpeciesSC Species = iota // S. cerevisiae, the scalar-id side
	SpeciesKM                // K. marxianus, the id-list side
)

func (s Species) String() string {
	switch s {
	case SpeciesSC:
		return "S. cerevisiae"
	case SpeciesKM:
		return "K. marxianus"
	default:
		return "unknown"
	}
}

type Locus struct {
	Chromosome Scalar `json:"chromosome,omitempty" bson:"chromosome,omitempty"`
	Start      Scalar `json:"start,omitempty" bson:"start,omitempty"`
	End        Scalar `json:"end,omitempty" bson:"end,omitempty"`
	Strand     Scalar `json:"strand,omitempty" bson:"strand,omitempty"`
}

func (l *Locus) IsEmpty() bool {
	return l == nil || (l.Chromosome == "" && l.Start == "" && l.End == "" && l.Strand == "")
}

// GeneRecord is the shape shared by both sides of an ortholog document.
// SC genes carry a scalar id, KM genes an id list. Both fields are read so
// a document that deviates from that still resolves.
type GeneRecord struct {
	ID            Scalar            `json:"id,omitempty" bson:"id,omitempty"`
	IDs           IDList            `json:"ids,omitempty" bson:"ids,omitempty"`
	Name          Scalar            `json:"name,omitempty" bson:"name,omitempty"`
	Description   Scalar            `json:"description,omitempty" bson:"description,omitempty"`
	Locus         *Locus            `json:"locus,omitempty" bson:"locus,omitempty"`
	ExternalLinks map[string]string `json:"external_links,omitempty" bson:"external_links,omitempty"`
}

// IDsText renders the id list the way it is matched and displayed.
func (g *GeneRecord) IDsText() string {
	return strings.Join(g.IDs, ", ")
}

// Identifier is the scalar id when present, otherwise the id list as text.
func (g *GeneRecord) Identifier() string {
	if id := g.ID.String(); id != "" {
		return id
	}
	return g.IDsText()
}

// Links returns the external links with a non-empty URL, ordered by label.
func (g *GeneRecord) Links() []ExternalLink {
	links := make([]ExternalLink, 0, len(g.ExternalLinks))
	for label, url := range g.ExternalLinks {
		if strings.TrimSpace(url) == "" {
			continue
		}
		links = append(links, ExternalLink{Label: label, URL: url})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Label < links[j].Label })
	return links
}

// Gene is implemented by the two species variants.
type Gene interface {
	Species() Species
	Record() *GeneRecord
}

type SCGene struct {
	GeneRecord `bson:",inline"`
}

func (g *SCGene) Species() Species    { return SpeciesSC }
func (g *SCGene) Record() *GeneRecord { return &g.GeneRecord }

type KMGene struct {
	GeneRecord `bson:",inline"`
}

func (g *KMGene) Species() Species    { return SpeciesKM }
func (g *KMGene) Record() *GeneRecord { return &g.GeneRecord }

// OrthologRecord is one document of the ortholog collection. The store id is
// never projected, so it has no field here.
type OrthologRecord struct {
	SC *SCGene `json:"sc_gene,omitempty" bson:"sc_gene,omitempty"`
	KM *KMGene `json:"km_gene,omitempty" bson:"km_gene,omitempty"`
}

type ExternalLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// GeneView is a gene normalized for display. Optional parts are zero when the
// source had nothing to show.
type GeneView struct {
	Species     string         `json:"species"`
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Locus       *Locus         `json:"locus,omitempty"`
	Links       []ExternalLink `json:"external_links,omitempty"`
}

type MatchPair struct {
	Subject         GeneView  `json:"subject"`
	SubjectSpecies  string    `json:"subject_species"`
	Ortholog        *GeneView `json:"ortholog,omitempty"`
	OrthologSpecies string    `json:"ortholog_species"`
}
