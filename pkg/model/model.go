// Package model holds the marketplace entities and the declarative
// constraint schemas their collections are validated against.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// Collection names.
const (
	Sellers  = "sellers"
	Products = "products"
	Users    = "users"
	Orders   = "orders"
	Reviews  = "reviews"
)

// Collections lists every collection the system knows, in load order.
func Collections() []string {
	return []string{Sellers, Products, Users, Orders, Reviews}
}

// Order statuses.
const (
	StatusPaid      = "paid"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// Payment methods.
const (
	PaymentCredit = "credit"
	PaymentDebit  = "debit"
	PaymentPaypal = "paypal"
	PaymentCrypto = "crypto"
)

type Seller struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int64   `json:"stock"`
	SellerID string  `json:"seller_id"`
}

type User struct {
	ID       int64    `json:"_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Wishlist []string `json:"wishlist,omitempty"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Qty       int64  `json:"qty"`
}

type Order struct {
	ID            string      `json:"_id"`
	UserID        int64       `json:"user_id"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	OrderTime     string      `json:"order_time"`
}

type Review struct {
	ID        int64  `json:"_id"`
	ProductID string `json:"product_id"`
	UserID    int64  `json:"user_id"`
	Rating    int64  `json:"rating"`
	Likes     int64  `json:"likes"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Doc converts an entity into its normalized document form via its JSON
// encoding. Numbers decode as json.Number so integer fields stay integral.
func Doc(v any) (document.Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}

	doc := document.Document{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}

	norm, ok := document.Normalize(doc).(document.Document)
	if !ok {
		return nil, fmt.Errorf("failed to normalize %T", v)
	}
	return norm, nil
}
