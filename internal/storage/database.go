package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

// DatabaseStore implements Store on top of gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by an open gorm connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// AutoMigrate creates or updates every table the gateway uses
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Order{},
		&models.SupportTicket{},
	)
}

// Session operations
func (d *DatabaseStore) CreateSession(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	session := &models.ChatSession{
		ClientID: clientID,
		Channel:  channel,
	}
	if err := d.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (d *DatabaseStore) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := d.db.WithContext(ctx).
		Where("id = ? AND deleted = ?", sessionID, false).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (d *DatabaseStore) FindActiveSessionByClient(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := d.db.WithContext(ctx).
		Where("client_id = ? AND channel = ? AND deleted = ?", clientID, channel, false).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session for client %s: %w", clientID, err)
	}
	return &session, nil
}

func (d *DatabaseStore) MarkSessionDeleted(ctx context.Context, sessionID string) error {
	result := d.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND deleted = ?", sessionID, false).
		Updates(map[string]interface{}{
			"deleted":       true,
			"last_order_id": nil,
			"waiting_for":   nil,
		})
	if result.Error != nil {
		return fmt.Errorf("mark session %s deleted: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (d *DatabaseStore) SaveSessionState(ctx context.Context, sessionID string, state SessionState) error {
	updates := map[string]interface{}{}
	if state.LastOrderID != nil {
		updates["last_order_id"] = *state.LastOrderID
	}
	if state.LastIntent != nil {
		updates["last_intent"] = *state.LastIntent
	}
	if state.WaitingFor != nil {
		if *state.WaitingFor == "" {
			updates["waiting_for"] = nil
		} else {
			updates["waiting_for"] = *state.WaitingFor
		}
	}
	if len(updates) == 0 {
		return nil
	}

	err := d.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND deleted = ?", sessionID, false).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("save state for session %s: %w", sessionID, err)
	}
	return nil
}

func (d *DatabaseStore) ClearLastOrderID(ctx context.Context, sessionID string) error {
	err := d.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_order_id", nil).Error
	if err != nil {
		return fmt.Errorf("clear last order for session %s: %w", sessionID, err)
	}
	return nil
}

// Message operations
func (d *DatabaseStore) SaveMessage(ctx context.Context, sessionID, role, message string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		ChatID:    sessionID,
		Role:      role,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := d.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("save message for session %s: %w", sessionID, err)
	}
	return msg, nil
}

func (d *DatabaseStore) GetMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := d.db.WithContext(ctx).
		Table("chat_messages").
		Select("chat_messages.*").
		Joins("JOIN chat_sessions ON chat_messages.chat_id = chat_sessions.id").
		Where("chat_messages.chat_id = ? AND chat_sessions.deleted = ?", sessionID, false).
		Order("chat_messages.timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("get messages for session %s: %w", sessionID, err)
	}
	return messages, nil
}

// Order operations
func (d *DatabaseStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := d.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &order, nil
}

func (d *DatabaseStore) UpsertOrder(ctx context.Context, order *models.Order) error {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(order).Error
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", order.OrderID, err)
	}
	return nil
}

// RescheduleDelivery moves the expected delivery date when the order allows it
func (d *DatabaseStore) RescheduleDelivery(ctx context.Context, orderID string, newDate time.Time) error {
	return d.mutateOrder(ctx, orderID, func(order *models.Order) (map[string]interface{}, error) {
		if !order.RescheduleEligible {
			return nil, ErrNotEligible
		}
		return map[string]interface{}{"expected_delivery": newDate}, nil
	})
}

// ChangeDeliveryAddress replaces the delivery address when the order allows it
func (d *DatabaseStore) ChangeDeliveryAddress(ctx context.Context, orderID, address string) error {
	return d.mutateOrder(ctx, orderID, func(order *models.Order) (map[string]interface{}, error) {
		if !order.AddressChangeEligible {
			return nil, ErrNotEligible
		}
		return map[string]interface{}{"delivery_address": address}, nil
	})
}

// mutateOrder re-reads the order inside one transaction so the eligibility check and the write commit together
func (d *DatabaseStore) mutateOrder(ctx context.Context, orderID string, change func(*models.Order) (map[string]interface{}, error)) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		// sqlite has no row locks; the single writer connection serializes instead
		if tx.Dialector.Name() != "sqlite" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var order models.Order
		err := query.Where("order_id = ?", orderID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}

		updates, err := change(&order)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update order %s: %w", orderID, err)
		}
		return nil
	})
}

func (d *DatabaseStore) LookupOrder(ctx context.Context, lookup OrderLookup) (string, []map[string]interface{}, error) {
	statement, key := LookupStatement(lookup)
	var rows []map[string]interface{}
	if err := d.db.WithContext(ctx).Raw(statement, key).Scan(&rows).Error; err != nil {
		return statement, nil, fmt.Errorf("lookup order: %w", err)
	}
	return statement, rows, nil
}

// Support operations
func (d *DatabaseStore) CreateSupportTicket(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error) {
	if err := d.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("create support ticket: %w", err)
	}
	return ticket, nil
}

func (d *DatabaseStore) MarkTicketNotified(ctx context.Context, ticketID string, at time.Time) error {
	err := d.db.WithContext(ctx).
		Model(&models.SupportTicket{}).
		Where("ticket_id = ?", ticketID).
		Update("notified_at", at).Error
	if err != nil {
		return fmt.Errorf("mark ticket %s notified: %w", ticketID, err)
	}
	return nil
}

// Ping checks the underlying connection pool
func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
