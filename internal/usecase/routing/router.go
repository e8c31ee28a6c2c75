package routing

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"legalmind/internal/domain"
)

// complexityIndicators are phrases that suggest a question needs more than
// one specialist. Matches are counted per distinct indicator.
var complexityIndicators = []string{
	"and also",
	"as well as",
	"in addition",
	"multiple",
	"both",
	"compare",
	"litigation",
	"lawsuit",
	"damages",
	"liability",
	"contract dispute",
	"precedent",
	"appeal",
}

const (
	complexMessageRunes    = 200
	complexIndicatorCount  = 3
	complexConfidenceFloor = 0.7
)

// Router turns a classified intent into a routing decision: which agents to
// run and whether they collaborate.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: registry, logger: logger}
}

// Registry exposes the profile registry the router was built with.
func (r *Router) Registry() *Registry { return r.registry }

// Route decides which agents handle the message. Off-topic intents produce
// an empty agent list; the orchestrator falls back to the plain chat model.
func (r *Router) Route(intent domain.Intent, message string) domain.RoutingDecision {
	primary, ok := PrimaryAgentForIntent(intent.Kind)
	if !ok {
		return domain.RoutingDecision{
			SelectedAgents:        nil,
			RequiresCollaboration: false,
			Intent:                intent,
			Reason:                "off-topic message, answered by the chat model directly",
		}
	}

	complex := isComplex(message, intent)
	agents := determineAgents(primary, intent.Kind, complex)

	reason := fmt.Sprintf("intent %s (%.2f, %s layer)", intent.Kind, intent.Confidence, intent.Layer)
	if complex {
		reason += ", complex question, multi-agent collaboration"
	}

	r.logger.Debug("routing decision",
		"intent", intent.Kind,
		"confidence", intent.Confidence,
		"complex", complex,
		"agents", agents,
	)

	return domain.RoutingDecision{
		SelectedAgents:        agents,
		RequiresCollaboration: len(agents) > 1,
		Intent:                intent,
		Reason:                reason,
	}
}

// isComplex reports whether the message warrants multi-agent handling: a
// long message, several distinct complexity indicators, or a low-confidence
// classification.
func isComplex(message string, intent domain.Intent) bool {
	if utf8.RuneCountInString(message) > complexMessageRunes {
		return true
	}
	lower := strings.ToLower(message)
	hits := 0
	for _, ind := range complexityIndicators {
		if strings.Contains(lower, ind) {
			hits++
			if hits >= complexIndicatorCount {
				return true
			}
		}
	}
	return intent.Confidence < complexConfidenceFloor
}

// determineAgents expands the primary agent into a pipeline for complex
// questions. Consultation gains research up front and case analysis in the
// middle; drafting gains research up front. The primary agent always runs
// last so it sees the other results.
func determineAgents(primary domain.AgentType, kind domain.IntentKind, complex bool) []domain.AgentType {
	agents := []domain.AgentType{primary}
	if !complex {
		return agents
	}

	switch kind {
	case domain.IntentLegalConsultation:
		agents = prependUnique(agents, domain.AgentLegalResearch)
		agents = insertUnique(agents, 1, domain.AgentCaseAnalysis)
	case domain.IntentDocumentDraft:
		agents = prependUnique(agents, domain.AgentLegalResearch)
	}
	return agents
}

func prependUnique(agents []domain.AgentType, a domain.AgentType) []domain.AgentType {
	for _, x := range agents {
		if x == a {
			return agents
		}
	}
	return append([]domain.AgentType{a}, agents...)
}

func insertUnique(agents []domain.AgentType, pos int, a domain.AgentType) []domain.AgentType {
	for _, x := range agents {
		if x == a {
			return agents
		}
	}
	if pos > len(agents) {
		pos = len(agents)
	}
	out := make([]domain.AgentType, 0, len(agents)+1)
	out = append(out, agents[:pos]...)
	out = append(out, a)
	out = append(out, agents[pos:]...)
	return out
}
