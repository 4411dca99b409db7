package vocab

// Namespaces used by the RDF reader and writer.
const (
	RDFNamespace      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace     = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace      = "http://www.w3.org/2002/07/owl#"
	SKOSNamespace     = "http://www.w3.org/2004/02/skos/core#"
	OBOInOWLNamespace = "http://www.geneontology.org/formats/oboInOwl#"
	OBANNamespace     = "http://purl.org/oban/"
	OBONamespace      = "http://purl.obolibrary.org/obo/"
	DCNamespace       = "http://purl.org/dc/elements/1.1/"
)

// RDF and RDFS
const (
	RDFType        = RDFNamespace + "type"
	RDFSSubClassOf = RDFSNamespace + "subClassOf"
	RDFSLabel      = RDFSNamespace + "label"
	RDFSComment    = RDFSNamespace + "comment"
)

// OWL
const (
	OWLClass           = OWLNamespace + "Class"
	OWLEquivalentClass = OWLNamespace + "equivalentClass"
	OWLSameAs          = OWLNamespace + "sameAs"
)

// SKOS and oboInOwl cross-reference predicates
const (
	SKOSExactMatch     = SKOSNamespace + "exactMatch"
	OBOHasDbXref       = OBOInOWLNamespace + "hasDbXref"
	OBOHasExactSynonym = OBOInOWLNamespace + "hasExactSynonym"
)

// OBAN association reification. An association node carries one subject,
// one predicate and one object; the RDF reader turns each into an edge.
const (
	OBANAssociation  = OBANNamespace + "association"
	OBANHasSubject   = OBANNamespace + "association_has_subject"
	OBANHasObject    = OBANNamespace + "association_has_object"
	OBANHasPredicate = OBANNamespace + "association_has_predicate"
)

// Other terms referenced by the default tables
const (
	DCDescription    = DCNamespace + "description"
	ROHasEvidence    = OBONamespace + "RO_0002558"
	ROInTaxon        = OBONamespace + "RO_0002162"
	HPOPhenotypeRoot = OBONamespace + "HP_0000001"
)

// EquivalencePredicates link two identifiers for the same entity. Category
// inference crosses them at zero cost in both directions.
var EquivalencePredicates = []string{
	OWLEquivalentClass,
	OBOHasDbXref,
	SKOSExactMatch,
	OBOHasExactSynonym,
}

// IsAPredicates point from a term to its type or superclass.
var IsAPredicates = []string{
	RDFSSubClassOf,
	RDFType,
}

// UniversalRoots carry no category information and are never walked.
var UniversalRoots = []string{
	OWLClass,
	HPOPhenotypeRoot,
}
