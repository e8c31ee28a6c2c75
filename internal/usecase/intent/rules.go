package intent

import (
	"strings"
	"unicode/utf8"

	"legalmind/internal/domain"
)

// keywordRule matches one intent category against fixed keyword sets.
type keywordRule struct {
	intent          domain.IntentKind
	keywords        []string // any match triggers the rule
	excludeKeywords []string // any match suppresses the rule
	baseConfidence  float64
	boostKeywords   []string // secondary intensifiers,+0.03 each
}

// Rules are evaluated in declaration order; confidence ties break in favor
// of the earlier rule.
var keywordRules = []keywordRule{
	{
		intent: domain.IntentLegalResearch,
		keywords: []string{
			"statute", "regulation", "provision", "legal basis", "legal clause",
			"civil code", "criminal code", "labor law", "contract law",
			"company law", "family law", "inheritance law", "property law",
			"tort law", "procedure law", "which article", "which section",
			"what does the law say", "how is it regulated", "is there a law",
			"judicial interpretation", "legislation",
		},
		excludeKeywords: []string{"case", "judgment", "ruling"},
		baseConfidence:  0.75,
		boostKeywords:   []string{"look up", "search", "find", "interpret", "explain", "meaning"},
	},
	{
		intent: domain.IntentCaseAnalysis,
		keywords: []string{
			"case", "precedent", "judgment", "ruling", "verdict", "court",
			"court decision", "case law", "similar case", "leading case",
			"landmark case", "how would a court rule", "damages awarded",
			"sentence length", "win rate", "lose the case",
		},
		baseConfidence: 0.8,
		boostKeywords:  []string{"analyze", "search", "find", "compare", "reference"},
	},
	{
		intent: domain.IntentDocumentDraft,
		keywords: []string{
			"draft", "draw up", "write a", "write me", "prepare a", "template",
			"boilerplate", "contract", "agreement", "complaint",
			"statement of claim", "statement of defense", "appeal brief",
			"demand letter", "cease and desist", "power of attorney",
			"declaration", "undertaking", "guarantee letter", "will",
			"promissory note", "iou", "receipt",
		},
		baseConfidence: 0.85,
		boostKeywords:  []string{"generate", "produce", "issue"},
	},
	{
		intent: domain.IntentLegalConsultation,
		keywords: []string{
			"legal question", "legal advice", "what should i do",
			"how do i handle", "what can i do", "is it legal", "is it illegal",
			"is that allowed", "can i sue", "am i liable", "liability",
			"compensation", "my rights", "obligation", "dispute", "lawsuit",
			"arbitration", "mediation", "breach", "infringement", "fraud",
			"scammed", "defrauded", "claim damages", "get my money back",
			"recover",
		},
		excludeKeywords: []string{"case", "judgment", "draft", "template"},
		baseConfidence:  0.7,
		boostKeywords:   []string{"advice", "consult", "wondering", "please help"},
	},
}

// generalChatKeywords mark explicit small talk; combined with a short
// message they short-circuit classification entirely.
var generalChatKeywords = []string{
	"hello", "hi there", "hey", "good morning", "good afternoon",
	"good evening", "thanks", "thank you", "goodbye", "bye",
	"how are you", "tell me a joke", "weather", "bored",
}

// legalIndicators is the coarse domain filter: a message containing none of
// these is treated as off-topic without consulting the LLM layer.
var legalIndicators = []string{
	"law", "legal", "court", "judge", "lawyer", "attorney", "sue", "lawsuit",
	"litigation", "contract", "agreement", "liab", "damages", "breach",
	"infring", "dispute", "arbitrat", "mediat", "plaintiff", "defendant",
	"evidence", "witness", "police", "prosecut", "crime", "criminal",
	"statute", "regulation", "rights", "claim",
}

const shortMessageRunes = 20

// matchKeywords returns the subset of keywords contained in text.
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ruleClassify runs the rule layer. Returns nil when no rule fires.
func ruleClassify(message string) *domain.Intent {
	text := strings.ToLower(message)

	// Explicit small talk in a short message wins outright.
	if general := matchKeywords(text, generalChatKeywords); len(general) > 0 &&
		utf8.RuneCountInString(text) < shortMessageRunes {
		return &domain.Intent{
			Kind:            domain.IntentGeneralChat,
			Confidence:      0.9,
			Layer:           domain.LayerRule,
			MatchedKeywords: general,
		}
	}

	var best *domain.Intent
	for _, rule := range keywordRules {
		if len(matchKeywords(text, rule.excludeKeywords)) > 0 {
			continue
		}

		matched := matchKeywords(text, rule.keywords)
		if len(matched) == 0 {
			continue
		}

		confidence := rule.baseConfidence
		if extra := len(matched) - 1; extra > 0 {
			confidence += 0.05 * float64(min(extra, 3))
		}
		confidence += 0.03 * float64(len(matchKeywords(text, rule.boostKeywords)))
		confidence = min(confidence, 0.95)

		// Strictly greater keeps declaration order as the tiebreaker.
		if best == nil || confidence > best.Confidence {
			best = &domain.Intent{
				Kind:            rule.intent,
				Confidence:      confidence,
				Layer:           domain.LayerRule,
				MatchedKeywords: matched,
			}
		}
	}

	return best
}

// isLegalRelated is the fast domain filter used before the LLM layer.
func isLegalRelated(message string) bool {
	text := strings.ToLower(message)
	for _, indicator := range legalIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}
