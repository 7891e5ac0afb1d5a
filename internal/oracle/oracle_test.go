package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

// scriptedGenerator answers with a fixed completion and records the prompts it saw
type scriptedGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *scriptedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// blockingGenerator waits until the context ends
type blockingGenerator struct{}

func (blockingGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`ORD123`:         "ORD123",
		`  "ORD123" `:    "ORD123",
		`'ORD123'`:       "ORD123",
		`""`:             "",
		`"\"\""`:         `\"\"`,
		"`csv`":          "csv",
		`"'nested'"`:     "nested",
		`"unbalanced`:    `"unbalanced`,
		`2025-06-10`:     "2025-06-10",
		` "2025-06-10" `: "2025-06-10",
	}
	for in, want := range cases {
		assert.Equal(t, want, Unquote(in), "input %q", in)
	}
}

func TestClassifyIntentRendersTurn(t *testing.T) {
	gen := &scriptedGenerator{answer: ` "reschedule_delivery" `}
	o := New(gen, time.Second)

	label, err := o.ClassifyIntent(context.Background(), IntentInput{
		Query:      "move my delivery to Friday",
		OrderIDs:   "ORD123",
		LastIntent: "None",
		WaitingFor: "None",
	})
	require.NoError(t, err)
	assert.Equal(t, "reschedule_delivery", label)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "move my delivery to Friday")
	assert.Contains(t, gen.prompts[0], "ORD123")
}

func TestCheckContinuation(t *testing.T) {
	ctx := context.Background()

	continuing, err := New(&scriptedGenerator{answer: "False"}, time.Second).CheckContinuation(ctx, ContinuationInput{})
	require.NoError(t, err)
	assert.False(t, continuing)

	continuing, err = New(&scriptedGenerator{answer: "true"}, time.Second).CheckContinuation(ctx, ContinuationInput{})
	require.NoError(t, err)
	assert.True(t, continuing)

	// anything that is not an explicit false keeps the topic
	continuing, err = New(&scriptedGenerator{answer: "maybe"}, time.Second).CheckContinuation(ctx, ContinuationInput{})
	require.NoError(t, err)
	assert.True(t, continuing)

	continuing, err = New(&scriptedGenerator{err: errors.New("boom")}, time.Second).CheckContinuation(ctx, ContinuationInput{})
	assert.Error(t, err)
	assert.True(t, continuing)
}

func TestExtractDateGivesCalendarAnchors(t *testing.T) {
	gen := &scriptedGenerator{answer: `"2025-06-10"`}
	o := New(gen, time.Second)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	date, err := o.ExtractDate(context.Background(), "next tuesday please", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", date)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "2025-06-01")
	assert.Contains(t, gen.prompts[0], "2025-06-02")
	assert.Contains(t, gen.prompts[0], "2025")
}

func TestClassifyLookup(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		answer string
		err    error
		want   models.LookupKind
	}{
		{answer: "invoice", want: models.LookupInvoice},
		{answer: `"Invoice"`, want: models.LookupInvoice},
		{answer: "shipment", want: models.LookupShipment},
		{answer: "all", want: models.LookupAll},
		{answer: "something else", want: models.LookupShipment},
		{err: errors.New("timeout"), want: models.LookupShipment},
	}
	for _, tt := range tests {
		kind, _ := New(&scriptedGenerator{answer: tt.answer, err: tt.err}, time.Second).
			ClassifyLookup(ctx, "where is it", "", "Order ID: ORD1")
		assert.Equal(t, tt.want, kind, "answer %q", tt.answer)
	}
}

func TestSummarizeLookupIncludesSchema(t *testing.T) {
	gen := &scriptedGenerator{answer: "Your order is on the way."}
	out, err := New(gen, time.Second).SummarizeLookup(context.Background(),
		"where is ORD1", "Human: hi\n", "SELECT * FROM orders WHERE order_id = ?", "(shipment_status: in_transit)")
	require.NoError(t, err)
	assert.Equal(t, "Your order is on the way.", out)
	assert.Contains(t, gen.prompts[0], "CREATE TABLE orders")
	assert.Contains(t, gen.prompts[0], "(shipment_status: in_transit)")
}

func TestGenerateHonoursTimeout(t *testing.T) {
	o := New(blockingGenerator{}, 20*time.Millisecond)

	started := time.Now()
	_, err := o.SmallTalk(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}

func TestGenerateTrimsAndWrapsErrors(t *testing.T) {
	out, err := New(&scriptedGenerator{answer: "  hello there \n"}, time.Second).SmallTalk(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	_, err = New(&scriptedGenerator{err: ErrEmptyCompletion}, time.Second).AnswerFAQ(context.Background(), "q", "p")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Contains(t, err.Error(), "answer_faq")
}

func TestRenderGoTemplate(t *testing.T) {
	out, err := render("Hello {{.name}}", map[string]any{"name": "AIRA"})
	require.NoError(t, err)
	assert.Equal(t, "Hello AIRA", out)
}
