package oracle

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// Prompt templates use Go template syntax and are rendered through langchaingo.
const (
	orderIDTemplate = `You work for a transport and logistics company and must find an order id.
Order ids start with "ORD" followed by digits, for example ORD123.

Customer message: {{.query}}
Order id remembered for this session: {{.session_order_id}}

Rules:
- Look in the customer message first.
- If the message has none, use the remembered order id.
- If neither has one, answer "".
- Never invent an order id.
- Answer with the bare order id or "" and nothing else.`

	emailTemplate = `Find an email address in this customer message.
Message: {{.query}}
Answer with the bare email address, or "" when there is none.`

	continuationTemplate = `Decide whether the customer's new message carries on the previous exchange.

Previous intent: {{.last_intent}}
Intent of the new message: {{.current_intent}}
New message: {{.query}}
Order ids mentioned so far: {{.order_ids}}
Information we asked for: {{.waiting_for}}

Rules:
- It carries on when it stays on the same intent as before.
- It carries on when it supplies a date for a reschedule_delivery request or an address for an address_change request.
- It carries on when it answers earlier small talk.
- It is a new topic when it moves to another intent or has nothing to do with the orders discussed.
Answer true or false and nothing else.`

	smallTalkTemplate = `You are the friendly assistant of a transport and logistics company.
The customer is making small talk (thanks, how are you, goodbye and the like).

Message: {{.query}}

Rules:
- Reply warmly in under 50 words.
- Do not bring up logistics details the customer did not mention.
- End with a light offer to help with a delivery or order.
- Do not answer questions unrelated to orders or logistics.
Answer with the reply text only.`

	intentTemplate = `Label the customer message of a logistics support assistant with exactly one intent.

Intents:
- csv: general questions on placing orders, payments, shipping, delivery, warranties, returns, dealers, technical support, bulk discounts.
- mysql: requests for the shipment or invoice details of a specific order, identified by order id or email.
- reschedule_delivery: asking to move a delivery date, or giving a date after we asked for one.
- address_change: asking to change the delivery address, or giving an address after we asked for one.
- general: a bare greeting such as "Hi" or "Hello".
- small_talks: casual phrases like "How are you", "Great", "Thanks", "Good morning".
- frustration: annoyance, complaints, urgency or any negative sentiment about the service.
- vip: bulk or high value shipments and business partnership enquiries.
- capabilities: questions about what the assistant can do.

Message: {{.query}}
Order ids mentioned so far: {{.order_ids}}
Previous intent: {{.last_intent}}
Information we asked for: {{.waiting_for}}

Rules:
- Keep the conversation flowing: "my order" with a known order id means mysql, reschedule_delivery or address_change.
- If we asked for a date and the message holds one, answer reschedule_delivery.
- If we asked for an address and the message holds one, answer address_change.
- Placing a new order is csv.

Examples:
"How do I track my package?" -> csv
"Status of ORD123" -> mysql
"Reschedule my delivery" -> reschedule_delivery
"tomorrow" (we asked for a date) -> reschedule_delivery
"Change my address" -> address_change
"Hi" -> general
"Thanks" -> small_talks
"What can you do?" -> capabilities
"This is taking too long" -> frustration
"We want to ship 500 units every month" -> vip

Answer with the intent label only.`

	deliveryDateTemplate = `Find the delivery date the customer asks for.

Message: {{.query}}

Rules:
- "today" means {{.today}} and "tomorrow" means {{.tomorrow}}.
- Dates such as "May 20", "20th May" or "2025-05-20" are accepted; a date without a year is in {{.current_year}}.
- Use only dates written in the message.
- For "yesterday" or any date in the past answer "".
- If there is no date answer "".
Answer with the date as YYYY-MM-DD or "" and nothing else.`

	deliveryAddressTemplate = `Find a delivery address in the customer message.
An address usually has a street and number, a city, a state and a postal code.

Message: {{.query}}

Answer with the address only, or "" when there is none.`

	lookupKindTemplate = `Decide what the customer wants to see about their order.

Message: {{.query}}
Conversation so far: {{.history}}
Known details: {{.context_info}}

Rules:
- Mentions of invoices, bills or payment documents mean invoice.
- Tracking, delivery, status or general order details mean shipment.
- When unsure answer shipment.
Answer invoice or shipment in lowercase and nothing else.`

	lookupSummaryTemplate = `You are a logistics assistant. Explain the order data below to the customer in plain language.

Customer message: {{.query}}
Table schema: {{.schema}}
Conversation so far: {{.history}}
Query that was run: {{.sql_query}}
Rows returned: {{.sql_response}}

Rules:
- Use bullet points and bold labels so the answer is easy to scan.
- If no rows came back, ask the customer for more details such as the order id or email.`

	faqTemplate = `You answer frequently asked questions for a logistics company.

Reference material:
{{.context}}

Question: {{.query}}

Rules:
- Answer briefly and only from the reference material.
- If the material does not cover the question, say so politely.
- Do not quote raw data or mention where the material comes from.`
)

func render(template string, vars map[string]any) (string, error) {
	tpl := prompts.PromptTemplate{
		Template:       template,
		InputVariables: inputVariables(vars),
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}
	prompt, err := tpl.Format(vars)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return prompt, nil
}

func inputVariables(vars map[string]any) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	return names
}
