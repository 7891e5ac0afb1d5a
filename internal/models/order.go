package models

import "time"

// Order is the customer order record owned by the order management system
type Order struct {
	OrderID               string    `json:"order_id" gorm:"primaryKey;size:32"`
	CustomerName          string    `json:"customer_name"`
	Email                 string    `json:"email" gorm:"index"`
	ShipmentStatus        string    `json:"shipment_status"`
	ExpectedDelivery      time.Time `json:"expected_delivery" gorm:"type:date"`
	DeliveryAddress       string    `json:"delivery_address"`
	RescheduleEligible    bool      `json:"reschedule_eligible" gorm:"default:false"`
	AddressChangeEligible bool      `json:"address_change_eligible" gorm:"default:false"`
	InvoiceURL            string    `json:"invoice_url"`
}

// TableName keeps the table name used by the existing database
func (Order) TableName() string {
	return "orders"
}

// Shipment statuses seen in the orders table
const (
	ShipmentStatusProcessing = "processing"
	ShipmentStatusInTransit  = "in_transit"
	ShipmentStatusDelivered  = "delivered"
)

// DateLayout is the only accepted calendar date format
const DateLayout = "2006-01-02"

// OrderSchema describes the orders table to the summarization prompt
const OrderSchema = `CREATE TABLE orders (
  order_id VARCHAR(32) PRIMARY KEY,
  customer_name VARCHAR(255),
  email VARCHAR(255),
  shipment_status VARCHAR(64),
  expected_delivery DATE,
  delivery_address TEXT,
  reschedule_eligible BOOLEAN,
  address_change_eligible BOOLEAN,
  invoice_url TEXT
)`
