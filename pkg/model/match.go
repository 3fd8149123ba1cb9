package model

import "strings"

// Resolve decides which side of record the user searched for.
//
// The KM side is the subject only when the lower-cased query is a substring
// of its id list. In every other case the SC side is the subject, whichever
// field actually matched in the store. Callers must not pass a record they
// did not get from a non-empty search.
func Resolve(query string, record OrthologRecord) MatchPair {
	q := strings.ToLower(strings.TrimSpace(query))

	isKMMatch := record.KM != nil &&
		strings.Contains(strings.ToLower(record.KM.IDsText()), q)

	var subject, ortholog Gene
	switch {
	case isKMMatch:
		subject, ortholog = record.KM, scOrNil(record.SC)
	case record.SC != nil:
		subject, ortholog = record.SC, kmOrNil(record.KM)
	case record.KM != nil:
		// No SC side to default to.
		subject = record.KM
	default:
		subject = &SCGene{}
	}

	pair := MatchPair{
		Subject:         NewGeneView(subject),
		SubjectSpecies:  subject.Species().String(),
		OrthologSpecies: otherSpecies(subject.Species()).String(),
	}
	if ortholog != nil {
		view := NewGeneView(ortholog)
		pair.Ortholog = &view
	}
	return pair
}

// NewGeneView normalizes g for display.
func NewGeneView(g Gene) GeneView {
	rec := g.Record()

	view := GeneView{
		Species:     g.Species().String(),
		ID:          rec.Identifier(),
		Name:        rec.Name.String(),
		Description: rec.Description.String(),
	}
	if !rec.Locus.IsEmpty() {
		locus := *rec.Locus
		view.Locus = &locus
	}
	if links := rec.Links(); len(links) > 0 {
		view.Links = links
	}
	return view
}

func otherSpecies(s Species) Species {
	if s == SpeciesKM {
		return SpeciesSC
	}
	return SpeciesKM
}

// The helpers keep a nil *SCGene or *KMGene from becoming a non-nil Gene.
func scOrNil(g *SCGene) Gene {
	if g == nil {
		return nil
	}
	return g
}

func kmOrNil(g *KMGene) Gene {
	if g == nil {
		return nil
	}
	return g
}
