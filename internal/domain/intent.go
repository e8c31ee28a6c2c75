package domain

// IntentKind is the closed set of intent categories the classifier produces.
type IntentKind string

const (
	IntentLegalResearch     IntentKind = "legal_research"
	IntentCaseAnalysis      IntentKind = "case_analysis"
	IntentLegalConsultation IntentKind = "legal_consultation"
	IntentDocumentDraft     IntentKind = "document_draft"
	IntentGeneralChat       IntentKind = "general_chat"
)

// Valid reports whether k is one of the declared intent kinds.
func (k IntentKind) Valid() bool {
	switch k {
	case IntentLegalResearch, IntentCaseAnalysis, IntentLegalConsultation,
		IntentDocumentDraft, IntentGeneralChat:
		return true
	}
	return false
}

// ClassifierLayer identifies which layer of the classifier produced an intent.
type ClassifierLayer string

const (
	LayerRule ClassifierLayer = "rule"
	LayerLLM  ClassifierLayer = "llm"
)

// IntentEntities holds structured entities the LLM layer may extract.
type IntentEntities struct {
	Laws         []string `json:"laws,omitempty"`
	CaseTypes    []string `json:"case_types,omitempty"`
	DocumentType string   `json:"document_type,omitempty"`
	LegalAreas   []string `json:"legal_areas,omitempty"`
}

// Intent is the classified category of one user message.
// It is ephemeral: recomputed on every turn, never stored beyond the trace.
type Intent struct {
	Kind            IntentKind      `json:"kind"`
	Confidence      float64         `json:"confidence"` // in [0,1]
	Layer           ClassifierLayer `json:"layer"`
	MatchedKeywords []string        `json:"matched_keywords,omitempty"`
	Reasoning       string          `json:"reasoning,omitempty"`
	Entities        *IntentEntities `json:"entities,omitempty"`
}
