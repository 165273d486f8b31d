package constants

// Provenance is the terminal state of one pipeline run. It records which
// extraction tier produced the final result.
type Provenance string

// Stable values (these exact strings appear in results and logs).
const (
	ProvenanceTemplate          Provenance = "template"           // guided extraction alone was confident
	ProvenanceTemplateHeuristic Provenance = "template+heuristic" // heuristic merge lifted confidence
	ProvenanceAI                Provenance = "ai"                 // AI collaborator produced the final answer
	ProvenanceLowConfidence     Provenance = "low-confidence-final"
)

// Item column layouts a template can record for its line-items table.
var (
	ItemColumnsWide   = []string{"description", "rate", "quantity", "amount"}
	ItemColumnsNarrow = []string{"description", "amount"}
)
