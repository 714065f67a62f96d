package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusAwaitingPay OrderStatus = "awaiting_payment"
	OrderStatusConfirmed   OrderStatus = "confirmed"
	OrderStatusPacked      OrderStatus = "packed"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

type Order struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Status         OrderStatus `gorm:"type:varchar(30);index" json:"status"`
	Items          []OrderItem `json:"items"`
	Email          string      `gorm:"size:140" json:"email"`
	Name           string      `gorm:"size:140" json:"name"`
	Phone          string      `gorm:"size:50" json:"phone"`
	Address        string      `gorm:"size:255" json:"address"`
	PostalCode     string      `gorm:"size:20" json:"postalCode"`
	State          string      `gorm:"size:80" json:"state"`
	DeliveryNotes  string      `gorm:"type:text" json:"deliveryNotes"`
	CustomerID     *uuid.UUID  `gorm:"type:uuid;index" json:"customerId,omitempty"`
	Total          float64     `gorm:"type:decimal(12,2)" json:"total"`
	ShippingMethod string      `gorm:"size:30" json:"shippingMethod"`
	ShippingCost   float64     `gorm:"type:decimal(12,2)" json:"shippingCost"`
	Notified       bool        `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

type OrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;index" json:"-"`
	ProductID string     `gorm:"size:64;index" json:"productId"`
	PackID    *uuid.UUID `gorm:"type:uuid;index" json:"packId,omitempty"`
	Title     string     `gorm:"size:180" json:"title"`
	Qty       int        `gorm:"not null" json:"qty"`
	UnitPrice float64    `gorm:"type:decimal(12,2)" json:"unitPrice"`
}
