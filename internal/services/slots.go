package services

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
)

// LanguageOracle is the set of model-backed operations the gateway uses.
// *oracle.Oracle implements it.
type LanguageOracle interface {
	ClassifyIntent(ctx context.Context, in oracle.IntentInput) (string, error)
	CheckContinuation(ctx context.Context, in oracle.ContinuationInput) (bool, error)
	ExtractOrderID(ctx context.Context, query, sessionOrderID string) (string, error)
	ExtractDate(ctx context.Context, query string, now time.Time) (string, error)
	ExtractAddress(ctx context.Context, query string) (string, error)
	ExtractEmail(ctx context.Context, query string) (string, error)
	ClassifyLookup(ctx context.Context, query, history, contextInfo string) (models.LookupKind, error)
	SummarizeLookup(ctx context.Context, query, history, sqlQuery, sqlResponse string) (string, error)
	AnswerFAQ(ctx context.Context, query, passages string) (string, error)
	SmallTalk(ctx context.Context, query string) (string, error)
}

const (
	orderIDPrefix    = "ORD"
	minAddressLength = 10
)

// SlotExtractor pulls validated slot values out of free text.
// Oracle failures and invalid candidates both come back as absent.
type SlotExtractor struct {
	oracle LanguageOracle
}

// NewSlotExtractor creates a slot extractor
func NewSlotExtractor(o LanguageOracle) *SlotExtractor {
	return &SlotExtractor{oracle: o}
}

// OrderID returns an order id from the query or the session, or ""
func (s *SlotExtractor) OrderID(ctx context.Context, query, sessionLastOrderID string) string {
	candidate, err := s.oracle.ExtractOrderID(ctx, query, sessionLastOrderID)
	if err != nil {
		log.Printf("Order id extraction failed: %v", err)
		return ""
	}
	return ValidOrderID(candidate)
}

// DeliveryDate returns the requested calendar date, if any
func (s *SlotExtractor) DeliveryDate(ctx context.Context, query string, now time.Time) (time.Time, bool) {
	candidate, err := s.oracle.ExtractDate(ctx, query, now)
	if err != nil {
		log.Printf("Delivery date extraction failed: %v", err)
		return time.Time{}, false
	}
	return ParseDeliveryDate(candidate)
}

// DeliveryAddress returns a plausible address or ""
func (s *SlotExtractor) DeliveryAddress(ctx context.Context, query string) string {
	candidate, err := s.oracle.ExtractAddress(ctx, query)
	if err != nil {
		log.Printf("Delivery address extraction failed: %v", err)
		return ""
	}
	return ValidAddress(candidate)
}

// Email returns an email address or ""
func (s *SlotExtractor) Email(ctx context.Context, query string) string {
	candidate, err := s.oracle.ExtractEmail(ctx, query)
	if err != nil {
		log.Printf("Email extraction failed: %v", err)
		return ""
	}
	return ValidEmail(candidate)
}

// ValidOrderID keeps candidates that carry the order prefix
func ValidOrderID(candidate string) string {
	candidate = oracle.Unquote(candidate)
	if !strings.HasPrefix(candidate, orderIDPrefix) {
		return ""
	}
	return candidate
}

// ParseDeliveryDate accepts only YYYY-MM-DD; empty and quoted-empty answers are absent
func ParseDeliveryDate(candidate string) (time.Time, bool) {
	candidate = oracle.Unquote(candidate)
	if candidate == "" {
		return time.Time{}, false
	}
	date, err := time.Parse(models.DateLayout, candidate)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// ValidAddress keeps candidates that are long enough and contain a digit
func ValidAddress(candidate string) string {
	candidate = oracle.Unquote(candidate)
	if len(candidate) < minAddressLength {
		return ""
	}
	if !strings.ContainsFunc(candidate, unicode.IsDigit) {
		return ""
	}
	return candidate
}

// ValidEmail keeps candidates containing "@"
func ValidEmail(candidate string) string {
	candidate = oracle.Unquote(candidate)
	if !strings.Contains(candidate, "@") {
		return ""
	}
	return candidate
}
