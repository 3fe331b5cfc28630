package store

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

var _ = Describe("BSON conversion", func() {
	It("should rewrite driver containers into plain documents", func() {
		// the shape a cursor decode into map[string]any produces for
		// an order: items as primitive.A of primitive.D, the date as
		// primitive.DateTime
		raw := map[string]any{
			"_id":     "o1",
			"user_id": int32(4),
			"items": primitive.A{
				primitive.D{
					{Key: "product_id", Value: "prod1007"},
					{Key: "qty", Value: int32(2)},
				},
			},
			"order_time": primitive.NewDateTimeFromTime(
				time.Date(2025, 5, 21, 16, 45, 0, 0, time.UTC)),
		}

		doc, err := document.AsObject(document.Normalize(fromBSON(raw)))
		Expect(err).NotTo(HaveOccurred())

		items, ok := doc["items"].([]any)
		Expect(ok).To(BeTrue(), "items must be a plain list")
		item, ok := items[0].(map[string]any)
		Expect(ok).To(BeTrue(), "an item must be a plain object")
		Expect(item["product_id"]).To(Equal("prod1007"))
		Expect(item["qty"]).To(Equal(int64(2)))

		Expect(doc["order_time"]).To(Equal("2025-05-21T16:45:00Z"))
		Expect(doc["user_id"]).To(Equal(int64(4)))
	})

	It("should flatten nested driver values", func() {
		raw := map[string]any{
			"meta": primitive.D{
				{Key: "tags", Value: primitive.A{"a", primitive.D{{Key: "k", Value: int32(1)}}}},
				{Key: "none", Value: primitive.Null{}},
			},
			"ref": primitive.NilObjectID,
		}

		out, ok := fromBSON(raw).(map[string]any)
		Expect(ok).To(BeTrue())

		meta, ok := out["meta"].(map[string]any)
		Expect(ok).To(BeTrue())
		tags, ok := meta["tags"].([]any)
		Expect(ok).To(BeTrue())
		Expect(tags[0]).To(Equal("a"))
		inner, ok := tags[1].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(inner["k"]).To(Equal(int32(1)))
		Expect(meta["none"]).To(BeNil())
		Expect(out["ref"]).To(Equal(primitive.NilObjectID.Hex()))
	})
})
