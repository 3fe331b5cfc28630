package model

import (
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

const emailPattern = `^.+@.+$`

// Schemas returns the constraint descriptors for every collection. These
// mirror the validators the database was initialized with: required keys,
// numeric bounds, enum membership and item shapes.
func Schemas() []store.Schema {
	return []store.Schema{
		{
			Collection: Sellers,
			Fields: []store.Field{
				{Name: "_id", Type: store.TypeString, Required: true},
				{Name: "name", Type: store.TypeString, Required: true},
				{Name: "email", Type: store.TypeString, Required: true, Pattern: emailPattern},
			},
		},
		{
			Collection: Products,
			Fields: []store.Field{
				{Name: "_id", Type: store.TypeString, Required: true},
				{Name: "name", Type: store.TypeString, Required: true},
				{Name: "category", Type: store.TypeString, Required: true},
				{Name: "price", Type: store.TypeDouble, Required: true, Min: store.FloatPtr(0)},
				{Name: "stock", Type: store.TypeInt, Required: true, Min: store.FloatPtr(0)},
				{Name: "seller_id", Type: store.TypeString, Required: true},
			},
		},
		{
			Collection: Users,
			Fields: []store.Field{
				{Name: "_id", Type: store.TypeInt, Required: true},
				{Name: "name", Type: store.TypeString, Required: true},
				{Name: "email", Type: store.TypeString, Required: true, Pattern: emailPattern},
				{
					Name: "wishlist", Type: store.TypeArray,
					Items: &store.Field{Type: store.TypeString},
				},
			},
		},
		{
			Collection: Orders,
			Fields: []store.Field{
				{Name: "_id", Type: store.TypeString, Required: true},
				{Name: "user_id", Type: store.TypeInt, Required: true},
				{
					Name: "items", Type: store.TypeArray, Required: true, MinItems: 1,
					Items: &store.Field{
						Type: store.TypeObject,
						Fields: []store.Field{
							{Name: "product_id", Type: store.TypeString, Required: true},
							{Name: "qty", Type: store.TypeInt, Required: true, Min: store.FloatPtr(1)},
						},
					},
				},
				{Name: "total", Type: store.TypeDouble, Required: true, Min: store.FloatPtr(0)},
				{
					Name: "status", Type: store.TypeString, Required: true,
					Enum: []string{StatusPaid, StatusPending, StatusCancelled, StatusShipped, StatusDelivered},
				},
				{
					Name: "payment_method", Type: store.TypeString, Required: true,
					Enum: []string{PaymentCredit, PaymentDebit, PaymentPaypal, PaymentCrypto},
				},
				{Name: "order_time", Type: store.TypeDate, Required: true},
			},
		},
		{
			Collection: Reviews,
			Fields: []store.Field{
				{Name: "_id", Type: store.TypeInt, Required: true},
				{Name: "product_id", Type: store.TypeString, Required: true},
				{Name: "user_id", Type: store.TypeInt, Required: true},
				{
					Name: "rating", Type: store.TypeInt, Required: true,
					Min: store.FloatPtr(1), Max: store.FloatPtr(5),
				},
				{Name: "likes", Type: store.TypeInt, Min: store.FloatPtr(0)},
				{Name: "comment", Type: store.TypeString},
				{Name: "timestamp", Type: store.TypeDate, Required: true},
			},
		},
	}
}
