// Package seed loads the demo marketplace dataset. Every document goes
// through the regular write path so the schema constraints apply.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/model"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/util"
)

// orderID derives a stable order identifier from a short slug, so seeded
// data is reproducible across runs.
func orderID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("codebrew/orders/"+slug)).String()
}

func Sellers() []model.Seller {
	return []model.Seller{
		{ID: "seller101", Name: "Bean Barn", Email: "hello@beanbarn.example"},
		{ID: "seller202", Name: "Roast Republic", Email: "sales@roastrepublic.example"},
		{ID: "seller303", Name: "Mug Life", Email: "info@muglife.example"},
	}
}

func Products() []model.Product {
	return []model.Product{
		{ID: "prod1001", Name: "Espresso Blend", Category: "coffee", Price: 120.0, Stock: 40, SellerID: "seller101"},
		{ID: "prod1002", Name: "Mocha Java", Category: "coffee", Price: 95.5, Stock: 25, SellerID: "seller101"},
		{ID: "prod1003", Name: "Cold Brew Kit", Category: "gear", Price: 350.0, Stock: 10, SellerID: "seller202"},
		{ID: "prod1004", Name: "Ceramic Mug", Category: "gear", Price: 80.0, Stock: 60, SellerID: "seller202"},
		{ID: "prod1005", Name: "Decaf Dream", Category: "coffee", Price: 110.0, Stock: 30, SellerID: "seller303"},
		{ID: "prod1006", Name: "French Press", Category: "gear", Price: 420.0, Stock: 8, SellerID: "seller303"},
		{ID: "prod1007", Name: "Single Origin Kenya", Category: "coffee", Price: 160.0, Stock: 15, SellerID: "seller202"},
	}
}

func Users() []model.User {
	return []model.User{
		{ID: 1, Name: "Thandi Mokoena", Email: "thandi@example.com", Wishlist: []string{"prod1003", "prod1006"}},
		{ID: 2, Name: "Pieter van Wyk", Email: "pieter@example.com", Wishlist: []string{"prod1001"}},
		{ID: 3, Name: "Naledi Dlamini", Email: "naledi@example.com"},
		// prod9999 was removed from the catalog; the wishlist entry
		// stays behind as a dangling reference
		{ID: 4, Name: "Sipho Ndlovu", Email: "sipho@example.com", Wishlist: []string{"prod1001", "prod9999"}},
		{ID: 5, Name: "Anika Patel", Email: "anika@example.com", Wishlist: []string{"prod1002"}},
	}
}

func Orders() []model.Order {
	return []model.Order{
		{
			ID: orderID("o1"), UserID: 1,
			Items: []model.OrderItem{{ProductID: "prod1001", Qty: 2}, {ProductID: "prod1004", Qty: 1}},
			Total: 320.0, Status: model.StatusDelivered,
			PaymentMethod: model.PaymentCredit, OrderTime: "2025-05-03T10:15:00Z",
		},
		{
			ID: orderID("o2"), UserID: 2,
			Items: []model.OrderItem{{ProductID: "prod1001", Qty: 1}, {ProductID: "prod1002", Qty: 2}},
			Total: 311.0, Status: model.StatusShipped,
			PaymentMethod: model.PaymentDebit, OrderTime: "2025-05-10T14:30:00Z",
		},
		{
			ID: orderID("o3"), UserID: 3,
			Items: []model.OrderItem{{ProductID: "prod1003", Qty: 1}},
			Total: 350.0, Status: model.StatusDelivered,
			PaymentMethod: model.PaymentCredit, OrderTime: "2025-05-12T09:05:00Z",
		},
		{
			ID: orderID("o4"), UserID: 1,
			Items: []model.OrderItem{{ProductID: "prod1007", Qty: 1}, {ProductID: "prod1002", Qty: 1}},
			Total: 255.5, Status: model.StatusDelivered,
			PaymentMethod: model.PaymentPaypal, OrderTime: "2025-05-21T16:45:00Z",
		},
		{
			ID: orderID("o5"), UserID: 4,
			Items: []model.OrderItem{{ProductID: "prod1001", Qty: 3}},
			Total: 360.0, Status: model.StatusPaid,
			PaymentMethod: model.PaymentCredit, OrderTime: "2025-06-01T08:00:00Z",
		},
		{
			ID: orderID("o6"), UserID: 5,
			Items: []model.OrderItem{{ProductID: "prod1005", Qty: 1}, {ProductID: "prod1006", Qty: 1}},
			Total: 530.0, Status: model.StatusDelivered,
			PaymentMethod: model.PaymentDebit, OrderTime: "2025-06-02T11:20:00Z",
		},
		{
			ID: orderID("o7"), UserID: 2,
			Items: []model.OrderItem{{ProductID: "prod1004", Qty: 2}, {ProductID: "prod1001", Qty: 1}},
			Total: 280.0, Status: model.StatusDelivered,
			PaymentMethod: model.PaymentCredit, OrderTime: "2025-06-08T13:10:00Z",
		},
		{
			// references a product that was since deleted; analytics
			// must drop the item, not fail
			ID: orderID("o8"), UserID: 3,
			Items: []model.OrderItem{{ProductID: "prod9999", Qty: 1}},
			Total: 50.0, Status: model.StatusCancelled,
			PaymentMethod: model.PaymentCrypto, OrderTime: "2025-06-10T10:00:00Z",
		},
	}
}

func Reviews() []model.Review {
	return []model.Review{
		{ID: 1, ProductID: "prod1001", UserID: 1, Rating: 5, Likes: 4, Comment: "best morning shot", Timestamp: "2025-05-05T07:10:00Z"},
		{ID: 2, ProductID: "prod1001", UserID: 2, Rating: 4, Likes: 2, Comment: "solid crema", Timestamp: "2025-05-14T18:40:00Z"},
		{ID: 3, ProductID: "prod1002", UserID: 1, Rating: 3, Likes: 0, Timestamp: "2025-05-25T12:00:00Z"},
		{ID: 4, ProductID: "prod1003", UserID: 3, Rating: 5, Likes: 7, Comment: "cold brew changed my life", Timestamp: "2025-05-20T15:30:00Z"},
		{ID: 5, ProductID: "prod1004", UserID: 2, Rating: 4, Likes: 1, Timestamp: "2025-06-09T09:45:00Z"},
		{ID: 6, ProductID: "prod1005", UserID: 5, Rating: 2, Likes: 0, Comment: "tastes like regret", Timestamp: "2025-06-05T20:15:00Z"},
		{ID: 7, ProductID: "prod1006", UserID: 5, Rating: 5, Likes: 3, Timestamp: "2025-06-06T08:25:00Z"},
		{ID: 8, ProductID: "prod1007", UserID: 1, Rating: 4, Likes: 2, Comment: "bright and fruity", Timestamp: "2025-05-23T17:55:00Z"},
		{ID: 9, ProductID: "prod1001", UserID: 4, Rating: 3, Likes: 1, Timestamp: "2025-06-03T10:05:00Z"},
	}
}

// Load inserts the demo dataset through the given writer.
func Load(ctx context.Context, w store.Writer) error {
	insert := func(collection string, vs []any) error {
		for _, v := range vs {
			doc, err := model.Doc(v)
			if err != nil {
				return err
			}
			if err := w.Insert(ctx, collection, doc); err != nil {
				return fmt.Errorf("failed to seed collection %q: %w", collection, err)
			}
		}
		return nil
	}

	for _, batch := range []struct {
		collection string
		docs       []any
	}{
		{model.Sellers, anySlice(Sellers())},
		{model.Products, anySlice(Products())},
		{model.Users, anySlice(Users())},
		{model.Orders, anySlice(Orders())},
		{model.Reviews, anySlice(Reviews())},
	} {
		if err := insert(batch.collection, batch.docs); err != nil {
			return err
		}
	}

	return nil
}

func anySlice[T any](vs []T) []any {
	return util.Map(func(v T) any { return v }, vs)
}
