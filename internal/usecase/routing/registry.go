package routing

import (
	"sort"
	"sync"
	"time"

	"legalmind/internal/domain"
)

// AgentProfile is the static configuration of one specialist agent.
type AgentProfile struct {
	Type         domain.AgentType
	Name         string // display name, used in aggregated output headings
	Description  string
	Model        string // model ID passed to the provider
	SystemPrompt string
	ToolBundle   string // bundle name resolved by the tool layer
	MaxDuration  time.Duration
	MaxTokens    int
}

// Registry maps agent types to their profiles. It is an explicit value
// constructed once at process start and passed into the router and
// orchestrator; there is no package-level instance, so tests build their own.
type Registry struct {
	mu       sync.RWMutex
	profiles map[domain.AgentType]AgentProfile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[domain.AgentType]AgentProfile)}
}

// Register adds or replaces a profile. Returns ErrInvalidInput for an
// undeclared agent type.
func (r *Registry) Register(p AgentProfile) error {
	if !p.Type.Valid() {
		return domain.NewDomainError("Registry.Register", domain.ErrInvalidInput, string(p.Type))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Type] = p
	return nil
}

// Get returns the profile for the given agent type, or ErrAgentNotFound.
func (r *Registry) Get(t domain.AgentType) (AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[t]
	if !ok {
		return AgentProfile{}, domain.NewDomainError("Registry.Get", domain.ErrAgentNotFound, string(t))
	}
	return p, nil
}

// DisplayName returns the profile's display name, or the raw type when the
// agent is not registered.
func (r *Registry) DisplayName(t domain.AgentType) string {
	if p, err := r.Get(t); err == nil && p.Name != "" {
		return p.Name
	}
	return string(t)
}

// List returns all registered profiles sorted by type.
func (r *Registry) List() []AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// DefaultRegistry builds the standard four-agent legal registry.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []AgentProfile{
		{
			Type:         domain.AgentLegalResearch,
			Name:         "Legal Research",
			Description:  "Looks up statutes and regulations, interprets provisions, and finds the legal basis for a question.",
			Model:        "legal-research-model",
			SystemPrompt: legalResearchPrompt,
			ToolBundle:   "legal-research",
			MaxDuration:  30 * time.Second,
			MaxTokens:    4096,
		},
		{
			Type:         domain.AgentCaseAnalysis,
			Name:         "Case Analysis",
			Description:  "Finds similar cases and precedents and analyzes how courts have ruled and what damages were awarded.",
			Model:        "case-analysis-model",
			SystemPrompt: caseAnalysisPrompt,
			ToolBundle:   "case-analysis",
			MaxDuration:  30 * time.Second,
			MaxTokens:    4096,
		},
		{
			Type:         domain.AgentLegalAdvisor,
			Name:         "Legal Advisor",
			Description:  "Integrates research and case analysis into practical legal advice and a recommended course of action.",
			Model:        "legal-advisor-model",
			SystemPrompt: legalAdvisorPrompt,
			ToolBundle:   "legal-advisor",
			MaxDuration:  45 * time.Second,
			MaxTokens:    8192,
		},
		{
			Type:         domain.AgentDocumentDraft,
			Name:         "Document Draft",
			Description:  "Drafts legal documents such as contracts, complaints, demand letters, and declarations.",
			Model:        "document-draft-model",
			SystemPrompt: documentDraftPrompt,
			ToolBundle:   "document-draft",
			MaxDuration:  60 * time.Second,
			MaxTokens:    16384,
		},
	} {
		// Registration of the built-in profiles cannot fail: the types are
		// the declared constants.
		_ = r.Register(p)
	}
	return r
}

// PrimaryAgentForIntent maps an intent to its primary agent. The boolean is
// false for off-topic intents, which are handled by the plain chat model.
func PrimaryAgentForIntent(kind domain.IntentKind) (domain.AgentType, bool) {
	switch kind {
	case domain.IntentLegalResearch:
		return domain.AgentLegalResearch, true
	case domain.IntentCaseAnalysis:
		return domain.AgentCaseAnalysis, true
	case domain.IntentLegalConsultation:
		return domain.AgentLegalAdvisor, true
	case domain.IntentDocumentDraft:
		return domain.AgentDocumentDraft, true
	default:
		return "", false
	}
}
