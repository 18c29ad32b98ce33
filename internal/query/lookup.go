package query

import (
	"strings"

	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

// IncidentDetails returns the full record for id.
func (e *Engine) IncidentDetails(id any) (DetailsResult, error) {
	r, _, err := e.lookup("id", id)
	if err != nil {
		return DetailsResult{}, err
	}
	return DetailsResult{IncidentID: r.ID(), Incident: r}, nil
}

// HFACSClassification returns the classification stored on id, or an empty
// list for an unclassified record.
func (e *Engine) HFACSClassification(id any) (ClassificationResult, error) {
	r, _, err := e.lookup("id", id)
	if err != nil {
		return ClassificationResult{}, err
	}
	return ClassificationResult{IncidentID: r.ID(), HFACSClassification: hfacs.Raw(r)}, nil
}

// IncidentNarrative returns the narrative of id, or NoNarrative.
func (e *Engine) IncidentNarrative(id any) (NarrativeResult, error) {
	r, _, err := e.lookup("id", id)
	if err != nil {
		return NarrativeResult{}, err
	}
	text, ok := incident.Narrative(r)
	if !ok || strings.TrimSpace(text) == "" {
		text = NoNarrative
	}
	return NarrativeResult{IncidentID: r.ID(), Narrative: text}, nil
}

// Taxonomy returns the HFACS reference tree.
func (e *Engine) Taxonomy() hfacs.Taxonomy {
	return hfacs.Reference()
}
