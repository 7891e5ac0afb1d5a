package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession is the durable record of one customer conversation
type ChatSession struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ClientID    string    `json:"client_id" gorm:"index;not null"`
	Channel     string    `json:"channel" gorm:"default:'web'"` // web or whatsapp
	Deleted     bool      `json:"deleted" gorm:"default:false;index"`
	LastOrderID *string   `json:"last_order_id"`
	LastIntent  *string   `json:"last_intent"`
	WaitingFor  *string   `json:"waiting_for"` // persisted so a restart keeps pending clarifications
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the table name used by the existing database
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// BeforeCreate assigns a session id when the caller did not
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Channel == "" {
		s.Channel = ChannelWeb
	}
	return nil
}

// Session channels
const (
	ChannelWeb      = "web"
	ChannelWhatsApp = "whatsapp"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one append-only turn of a session
type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ChatID    string    `json:"chat_id" gorm:"index;not null;size:36"`
	Role      string    `json:"role" gorm:"type:varchar(16);not null"` // user or assistant
	Message   string    `json:"message" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// TableName keeps the table name used by the existing database
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate fills id and timestamp for new messages
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
