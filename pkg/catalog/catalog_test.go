package catalog

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/internal/seed"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/model"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/pipeline"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

var _ = Describe("Analytical query catalog", func() {
	var (
		ctx context.Context
		st  *store.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = store.NewMemory().WithSchemas(model.Schemas()...)
		Expect(seed.Load(ctx, st)).To(Succeed())
	})

	runQuery := func(name string, params Params) []document.Document {
		p, err := Build(name, params)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		res, err := p.Execute(ctx, st, logger)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return res
	}

	It("should know all queries by name", func() {
		Expect(Names()).To(ContainElements(
			"most-bought-per-seller", "top-products", "total-sales-per-seller",
			"recommendations", "co-purchases", "rating-summary",
			"total-revenue", "orders-per-user", "wishlist-popularity",
		))

		_, err := Build("no-such-query", Params{})
		Expect(err).To(HaveOccurred())
	})

	It("should rank items per seller by units sold", func() {
		res := runQuery("most-bought-per-seller", Params{})
		Expect(res).NotTo(BeEmpty())

		first := res[0]
		key, err := document.AsObject(first["_id"])
		Expect(err).NotTo(HaveOccurred())
		Expect(key["seller"]).To(Equal("seller101"))
		Expect(key["product"]).To(Equal("Espresso Blend"))
		Expect(first["total_sold"]).To(Equal(int64(7)))
	})

	It("should rank top products inside the date window", func() {
		res := runQuery("top-products", Params{
			From: "2025-05-01T00:00:00Z", To: "2025-05-31T23:59:59Z", Limit: 3,
		})
		Expect(res).To(HaveLen(3))

		// the two top products tie at 3 units in May; the stable sort
		// keeps their first-seen order
		Expect(res[0]["_id"]).To(Equal("prod1001"))
		Expect(res[0]["total_sold"]).To(Equal(int64(3)))
		Expect(res[1]["_id"]).To(Equal("prod1002"))
		Expect(res[1]["total_sold"]).To(Equal(int64(3)))
		Expect(res[2]["total_sold"]).To(Equal(int64(1)))
	})

	It("should reject an inverted date window before execution", func() {
		_, err := Build("top-products", Params{
			From: "2025-06-01T00:00:00Z", To: "2025-05-01T00:00:00Z",
		})
		Expect(err).To(HaveOccurred())

		ire := &pipeline.InvalidRangeError{}
		Expect(errors.As(err, &ire)).To(BeTrue())
	})

	It("should require the date window", func() {
		_, err := Build("top-products", Params{})
		Expect(err).To(HaveOccurred())
	})

	It("should compute revenue per seller", func() {
		res := runQuery("total-sales-per-seller", Params{})
		Expect(res).To(HaveLen(3))

		// integral prices stay integral through the sum; only the
		// fractional Mocha Java price forces Bean Barn onto floats
		Expect(res[0]["_id"]).To(Equal("seller101"))
		Expect(res[0]["total_sales"]).To(Equal(1126.5))
		Expect(res[1]["_id"]).To(Equal("seller202"))
		Expect(res[1]["total_sales"]).To(Equal(int64(750)))
		Expect(res[2]["_id"]).To(Equal("seller303"))
		Expect(res[2]["total_sales"]).To(Equal(int64(530)))
	})

	It("should keep the historical self-referential recommendation sets", func() {
		res := runQuery("recommendations", Params{})

		for _, doc := range res {
			set, err := document.AsList(doc["also_bought_with"])
			Expect(err).NotTo(HaveOccurred())
			Expect(set).To(Equal([]any{doc["_id"]}))
		}
	})

	It("should pair each product with the other products of the same buyers", func() {
		res := runQuery("co-purchases", Params{})

		byID := map[any][]any{}
		for _, doc := range res {
			set, err := document.AsList(doc["also_bought_with"])
			Expect(err).NotTo(HaveOccurred())
			Expect(set).NotTo(ContainElement(doc["_id"]))
			byID[doc["_id"]] = set
		}

		// the espresso blend is bought together with the mugs, the
		// Kenya beans and the mocha, never with itself
		Expect(byID["prod1001"]).To(ConsistOf("prod1002", "prod1004", "prod1007"))

		// the deleted product pairs only with the item its sole buyer
		// also ordered
		Expect(byID["prod9999"]).To(Equal([]any{"prod1003"}))
	})

	It("should summarize ratings and engagement per product", func() {
		res := runQuery("rating-summary", Params{})
		Expect(res).To(HaveLen(7))

		Expect(res[0]["_id"]).To(Equal("prod1003"))
		Expect(res[0]["avg_rating"]).To(Equal(5.0))
		Expect(res[0]["total_likes"]).To(Equal(int64(7)))
		Expect(res[0]["total_reviews"]).To(Equal(int64(1)))

		byID := map[any]document.Document{}
		for _, doc := range res {
			byID[doc["_id"]] = doc
		}
		Expect(byID["prod1001"]["avg_rating"]).To(Equal(4.0))
		Expect(byID["prod1001"]["total_reviews"]).To(Equal(int64(3)))
	})

	It("should fold all orders into one revenue figure", func() {
		res := runQuery("total-revenue", Params{})
		Expect(res).To(HaveLen(1))
		Expect(res[0]["_id"]).To(BeNil())
		Expect(res[0]["revenue"]).To(Equal(2456.5))
		Expect(res[0]["orders"]).To(Equal(int64(8)))
	})

	It("should summarize ordering activity per user", func() {
		res := runQuery("orders-per-user", Params{})
		Expect(res).To(HaveLen(5))

		Expect(res[0]["_id"]).To(Equal(int64(2)))
		Expect(res[0]["total_spent"]).To(Equal(int64(591)))
		Expect(res[0]["order_count"]).To(Equal(int64(2)))
	})

	It("should count wishlist appearances per product", func() {
		res := runQuery("wishlist-popularity", Params{})
		Expect(res).To(HaveLen(4))

		Expect(res[0]["_id"]).To(Equal("prod1001"))
		Expect(res[0]["wish_count"]).To(Equal(int64(2)))

		wishers, err := document.AsList(res[0]["wishers"])
		Expect(err).NotTo(HaveOccurred())
		Expect(wishers).To(ConsistOf(int64(2), int64(4)))

		// the wishlist entry for the removed product never joins a
		// product row, so it produces no partition
		for _, doc := range res {
			Expect(doc["_id"]).NotTo(Equal("prod9999"))
		}
	})
})
