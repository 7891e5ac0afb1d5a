package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
)

const whatsappPrefix = "whatsapp:"

// MessageSender delivers outbound WhatsApp text
type MessageSender interface {
	SendWhatsAppMessage(to string, message string) error
}

type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg *config.Config) (*TwilioService, error) {
	if !cfg.TwilioConfigured() {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &TwilioService{
		client: client,
		from:   WhatsAppAddress(cfg.TwilioWhatsAppFrom),
	}, nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send WhatsApp message: %v", err)
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d", *resp.ErrorCode)
	}

	if resp.Sid != nil {
		log.Printf("WhatsApp message sent, SID: %s", *resp.Sid)
	}
	return nil
}

// WhatsAppAddress adds the whatsapp: scheme when missing
func WhatsAppAddress(number string) string {
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}

// StripWhatsAppPrefix returns the bare phone number
func StripWhatsAppPrefix(address string) string {
	return strings.TrimPrefix(address, whatsappPrefix)
}
