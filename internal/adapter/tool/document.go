package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"legalmind/internal/domain"
)

// documentTemplates maps a document type to the sections a complete draft
// must contain, in order.
var documentTemplates = map[string][]string{
	"contract": {
		"Title and parties (full legal names and addresses)",
		"Recitals (background and purpose)",
		"Definitions",
		"Subject matter and scope of obligations",
		"Price, payment terms, and schedule",
		"Term, renewal, and termination",
		"Representations and warranties",
		"Liability, indemnification, and limitation of liability",
		"Confidentiality",
		"Dispute resolution and governing law",
		"Notices",
		"Signatures and date",
	},
	"complaint": {
		"Court caption and case information",
		"Parties (plaintiff and defendant, with addresses)",
		"Jurisdiction and venue",
		"Statement of facts (numbered paragraphs)",
		"Causes of action (each with elements and supporting facts)",
		"Damages and their calculation",
		"Prayer for relief",
		"Signature, date, and attachments list",
	},
	"demand_letter": {
		"Sender and recipient details",
		"Date and delivery method",
		"Statement of the underlying facts",
		"Legal basis for the demand",
		"The specific demand and the amount, if monetary",
		"Deadline for compliance",
		"Consequences of non-compliance",
		"Signature",
	},
	"power_of_attorney": {
		"Principal identification",
		"Agent identification",
		"Scope of granted powers (specific or general)",
		"Effective date and duration",
		"Revocation conditions",
		"Signature, date, and notarization block",
	},
	"declaration": {
		"Declarant identification",
		"Statement of personal knowledge",
		"Numbered factual statements",
		"Penalty-of-perjury clause",
		"Signature, date, and place",
	},
}

type documentParams struct {
	DocumentType string `json:"document_type"`
}

var documentParamsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"document_type": {
			"type": "string",
			"description": "The kind of document to outline",
			"enum": ["contract", "complaint", "demand_letter", "power_of_attorney", "declaration"]
		}
	},
	"required": ["document_type"]
}`)

// DocumentTemplateTool gives the drafting agent the required section list
// for a document type so drafts never miss a mandatory element.
type DocumentTemplateTool struct{}

func NewDocumentTemplateTool() *DocumentTemplateTool { return &DocumentTemplateTool{} }

func (t *DocumentTemplateTool) Name() string { return "document_template" }

func (t *DocumentTemplateTool) Description() string {
	return "Return the required section outline for a legal document type."
}

func (t *DocumentTemplateTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  documentParamsSchema,
	}
}

func (t *DocumentTemplateTool) Execute(_ context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var p documentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("invalid parameters: %v", err)}, nil
	}

	sections, ok := documentTemplates[p.DocumentType]
	if !ok {
		known := make([]string, 0, len(documentTemplates))
		for k := range documentTemplates {
			known = append(known, k)
		}
		sort.Strings(known)
		return &domain.ToolResult{
			IsError: true,
			Content: fmt.Sprintf("unknown document type %q, known types: %s", p.DocumentType, strings.Join(known, ", ")),
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Required sections for a %s:\n", strings.ReplaceAll(p.DocumentType, "_", " "))
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return &domain.ToolResult{Content: b.String()}, nil
}
