package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"legalmind/internal/domain"
	"legalmind/internal/infra/tracer"
)

const classificationPrompt = `You are an intent-recognition expert for a legal assistant. Classify the user's input into one of these categories:

1. legal_research: the user wants to look up statutes or regulations, interpret provisions, or find the legal basis for something
2. case_analysis: the user wants to find cases or precedents, or learn how courts have ruled in similar situations
3. legal_consultation: the user has a concrete legal problem and wants advice on how to handle it
4. document_draft: the user needs a legal document drafted, such as a contract, complaint, or demand letter
5. general_chat: small talk or anything unrelated to law

Return the category, a confidence between 0 and 1, and a short reasoning.`

// llmIntentOutput is the structured-output shape the model is constrained to.
type llmIntentOutput struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Reasoning  string                 `json:"reasoning"`
	Entities   *domain.IntentEntities `json:"entities,omitempty"`
}

// Config tunes the two-layer classifier.
type Config struct {
	// RuleConfidenceThreshold: rule results at or above this confidence are
	// returned without consulting the LLM layer.
	RuleConfidenceThreshold float64
	// EnableLLM toggles the LLM layer entirely.
	EnableLLM bool
	// LLMTimeout bounds the structured-output call.
	LLMTimeout time.Duration
}

// DefaultConfig matches the production tuning.
func DefaultConfig() Config {
	return Config{
		RuleConfidenceThreshold: 0.85,
		EnableLLM:               true,
		LLMTimeout:              5 * time.Second,
	}
}

// Classifier is the two-layer intent classifier: near-zero-cost keyword
// rules first, an LLM structured-output call only when the rules are not
// confident enough.
type Classifier struct {
	llm    domain.ObjectGenerator // nil disables the LLM layer
	cfg    Config
	logger *slog.Logger
}

// NewClassifier creates a classifier. llm may be nil, in which case only the
// rule layer runs.
func NewClassifier(llm domain.ObjectGenerator, cfg Config, logger *slog.Logger) *Classifier {
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 5 * time.Second
	}
	return &Classifier{llm: llm, cfg: cfg, logger: logger}
}

// Classify determines the intent of one user message. It never returns an
// error: LLM-layer failures degrade to legal_consultation at confidence 0.5.
func (c *Classifier) Classify(ctx context.Context, message string) domain.Intent {
	ctx, span := tracer.StartSpan(ctx, "intent.classify")
	defer span.End()

	start := time.Now()

	ruleResult := ruleClassify(message)

	if ruleResult != nil && ruleResult.Confidence >= c.cfg.RuleConfidenceThreshold {
		c.logger.Debug("rule-based classification",
			"intent", ruleResult.Kind,
			"confidence", ruleResult.Confidence,
			"elapsed", time.Since(start),
		)
		span.SetAttributes(
			tracer.StringAttr("intent.kind", string(ruleResult.Kind)),
			tracer.StringAttr("intent.layer", "rule"),
		)
		return *ruleResult
	}

	// Fast filter: clearly off-topic messages skip the LLM layer.
	if ruleResult == nil && !isLegalRelated(message) {
		c.logger.Debug("not legal related, returning general_chat", "elapsed", time.Since(start))
		return domain.Intent{
			Kind:       domain.IntentGeneralChat,
			Confidence: 0.8,
			Layer:      domain.LayerRule,
		}
	}

	if c.cfg.EnableLLM && c.llm != nil {
		llmResult := c.llmClassify(ctx, message)
		c.logger.Debug("llm classification",
			"intent", llmResult.Kind,
			"confidence", llmResult.Confidence,
			"elapsed", time.Since(start),
		)
		span.SetAttributes(
			tracer.StringAttr("intent.kind", string(llmResult.Kind)),
			tracer.StringAttr("intent.layer", "llm"),
		)

		if ruleResult != nil {
			// Agreement between layers boosts confidence; disagreement is
			// settled by whichever layer is more confident.
			if ruleResult.Kind == llmResult.Kind {
				llmResult.Confidence = min((ruleResult.Confidence+llmResult.Confidence)/2+0.1, 0.95)
				llmResult.MatchedKeywords = ruleResult.MatchedKeywords
				return llmResult
			}
			if ruleResult.Confidence > llmResult.Confidence {
				return *ruleResult
			}
		}
		return llmResult
	}

	if ruleResult != nil {
		return *ruleResult
	}

	return domain.Intent{
		Kind:       domain.IntentLegalConsultation,
		Confidence: 0.5,
		Layer:      domain.LayerRule,
	}
}

// llmClassify runs the structured-output layer. Failures degrade to the most
// general legal intent rather than propagating.
func (c *Classifier) llmClassify(ctx context.Context, message string) domain.Intent {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	ctx, span := tracer.StartSpan(ctx, "intent.llm_classify")
	defer span.End()

	var out llmIntentOutput
	err := c.llm.GenerateObject(ctx, classificationPrompt, "User input: "+message, &out)
	if err == nil && !domain.IntentKind(out.Intent).Valid() {
		err = domain.NewDomainError("Classifier.llmClassify", domain.ErrInvalidInput,
			fmt.Sprintf("unknown intent %q", out.Intent))
	}
	if err != nil {
		c.logger.Warn("llm classification failed", "error", err)
		tracer.RecordError(span, err)
		return domain.Intent{
			Kind:       domain.IntentLegalConsultation,
			Confidence: 0.5,
			Layer:      domain.LayerLLM,
			Reasoning:  "classification degraded to general legal consultation",
		}
	}

	tracer.SetOK(span)
	return domain.Intent{
		Kind:       domain.IntentKind(out.Intent),
		Confidence: out.Confidence,
		Layer:      domain.LayerLLM,
		Reasoning:  out.Reasoning,
		Entities:   out.Entities,
	}
}
