package vocabulary

// RDF and RDF Schema IRIs used by the component data.
//
// References:
// - RDF 1.1 Concepts: https://www.w3.org/TR/rdf11-concepts/
// - RDF Schema: https://www.w3.org/TR/rdf-schema/
const (
	RdfNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RdfsNamespace = "http://www.w3.org/2000/01/rdf-schema#"

	// RdfType links a resource to its class.
	RdfType = RdfNamespace + "type"

	// RdfsLabel provides a human-readable name for a resource.
	// The explorer displays it as the component name.
	RdfsLabel = RdfsNamespace + "label"

	// RdfsComment provides a human-readable description
	RdfsComment = RdfsNamespace + "comment"
)

// Prefixes maps query prefixes to namespaces, in the order they are declared.
var Prefixes = [][2]string{
	{"rdf", RdfNamespace},
	{"rdfs", RdfsNamespace},
	{"comp", ComponentNamespace},
}
