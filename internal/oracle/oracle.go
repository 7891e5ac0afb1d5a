package oracle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

// Oracle exposes the typed language operations the gateway relies on.
// Every call is bounded by the configured timeout.
type Oracle struct {
	gen     Generator
	timeout time.Duration
}

// New wraps a generator
func New(gen Generator, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Oracle{gen: gen, timeout: timeout}
}

// IntentInput is what intent classification sees of a turn
type IntentInput struct {
	Query      string
	OrderIDs   string
	LastIntent string
	WaitingFor string
}

// ContinuationInput is what the continuation check sees of a turn
type ContinuationInput struct {
	LastIntent    string
	CurrentIntent string
	Query         string
	OrderIDs      string
	WaitingFor    string
}

// Generate renders a template and returns the trimmed completion
func (o *Oracle) Generate(ctx context.Context, operation, template string, vars map[string]any) (string, error) {
	prompt, err := render(template, vars)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.gen.Complete(ctx, prompt)
	if err != nil {
		metrics.OracleFailures.WithLabelValues(operation).Inc()
		log.Printf("oracle %s failed: %v", operation, err)
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return strings.TrimSpace(out), nil
}

// ClassifyIntent returns the raw intent label
func (o *Oracle) ClassifyIntent(ctx context.Context, in IntentInput) (string, error) {
	out, err := o.Generate(ctx, "classify_intent", intentTemplate, map[string]any{
		"query":       in.Query,
		"order_ids":   in.OrderIDs,
		"last_intent": in.LastIntent,
		"waiting_for": in.WaitingFor,
	})
	if err != nil {
		return "", err
	}
	return Unquote(out), nil
}

// CheckContinuation reports whether the turn continues the previous topic.
// Only an explicit "false" counts as a topic change.
func (o *Oracle) CheckContinuation(ctx context.Context, in ContinuationInput) (bool, error) {
	out, err := o.Generate(ctx, "check_continuation", continuationTemplate, map[string]any{
		"last_intent":    in.LastIntent,
		"current_intent": in.CurrentIntent,
		"query":          in.Query,
		"order_ids":      in.OrderIDs,
		"waiting_for":    in.WaitingFor,
	})
	if err != nil {
		return true, err
	}
	return !strings.EqualFold(Unquote(out), "false"), nil
}

// ExtractOrderID returns the raw order id candidate
func (o *Oracle) ExtractOrderID(ctx context.Context, query, sessionOrderID string) (string, error) {
	out, err := o.Generate(ctx, "extract_order_id", orderIDTemplate, map[string]any{
		"query":            query,
		"session_order_id": sessionOrderID,
	})
	if err != nil {
		return "", err
	}
	return Unquote(out), nil
}

// ExtractDate returns the raw date candidate
func (o *Oracle) ExtractDate(ctx context.Context, query string, now time.Time) (string, error) {
	out, err := o.Generate(ctx, "extract_date", deliveryDateTemplate, map[string]any{
		"query":        query,
		"today":        now.Format(models.DateLayout),
		"tomorrow":     now.AddDate(0, 0, 1).Format(models.DateLayout),
		"current_year": now.Year(),
	})
	if err != nil {
		return "", err
	}
	return Unquote(out), nil
}

// ExtractAddress returns the raw address candidate
func (o *Oracle) ExtractAddress(ctx context.Context, query string) (string, error) {
	out, err := o.Generate(ctx, "extract_address", deliveryAddressTemplate, map[string]any{
		"query": query,
	})
	if err != nil {
		return "", err
	}
	return Unquote(out), nil
}

// ExtractEmail returns the raw email candidate
func (o *Oracle) ExtractEmail(ctx context.Context, query string) (string, error) {
	out, err := o.Generate(ctx, "extract_email", emailTemplate, map[string]any{
		"query": query,
	})
	if err != nil {
		return "", err
	}
	return Unquote(out), nil
}

// ClassifyLookup returns invoice or shipment; anything unexpected becomes shipment
func (o *Oracle) ClassifyLookup(ctx context.Context, query, history, contextInfo string) (models.LookupKind, error) {
	out, err := o.Generate(ctx, "classify_lookup", lookupKindTemplate, map[string]any{
		"query":        query,
		"history":      history,
		"context_info": contextInfo,
	})
	if err != nil {
		return models.LookupShipment, err
	}
	switch models.LookupKind(strings.ToLower(Unquote(out))) {
	case models.LookupInvoice:
		return models.LookupInvoice, nil
	case models.LookupAll:
		return models.LookupAll, nil
	default:
		return models.LookupShipment, nil
	}
}

// SummarizeLookup turns lookup rows into a customer facing answer
func (o *Oracle) SummarizeLookup(ctx context.Context, query, history, sqlQuery, sqlResponse string) (string, error) {
	return o.Generate(ctx, "summarize_lookup", lookupSummaryTemplate, map[string]any{
		"query":        query,
		"schema":       models.OrderSchema,
		"history":      history,
		"sql_query":    sqlQuery,
		"sql_response": sqlResponse,
	})
}

// AnswerFAQ answers strictly from retrieved passages
func (o *Oracle) AnswerFAQ(ctx context.Context, query, passages string) (string, error) {
	return o.Generate(ctx, "answer_faq", faqTemplate, map[string]any{
		"query":   query,
		"context": passages,
	})
}

// SmallTalk returns a short friendly reply
func (o *Oracle) SmallTalk(ctx context.Context, query string) (string, error) {
	return o.Generate(ctx, "small_talk", smallTalkTemplate, map[string]any{
		"query": query,
	})
}

// Unquote strips whitespace, code fences and wrapping quotes from a model answer
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
