package entity

import (
	"time"
)

// FieldPosition records where a field's value was first observed in a
// document: the line index (over trimmed, non-blank lines) and the byte
// offset of the value within that line.
type FieldPosition struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// ItemPattern is the learned column layout of the line-items table.
// An empty Columns slice means no recognizable layout was found and item
// extraction should fall back to heuristics.
type ItemPattern struct {
	HasHeader bool     `json:"has_header"`
	Columns   []string `json:"columns"`
}

// Template is a learned extraction recipe for one document shape.
// Retrieved by exact structure hash or exact vendor name; the store prefers
// the highest usage count among matches.
type Template struct {
	TemplateID     string                   `json:"template_id"`
	VendorName     string                   `json:"vendor_name"`
	StructureHash  string                   `json:"structure_hash"`
	FieldPositions map[string]FieldPosition `json:"field_positions"`
	ItemPattern    ItemPattern              `json:"item_pattern"`
	CreatedAt      time.Time                `json:"created_at"`
	LastUsed       time.Time                `json:"last_used"`
	UsageCount     int                      `json:"usage_count"`
}
