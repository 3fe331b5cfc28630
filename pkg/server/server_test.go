package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/internal/seed"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/model"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

var _ = Describe("HTTP server", func() {
	var srv *Server

	BeforeEach(func() {
		mem := store.NewMemory().WithSchemas(model.Schemas()...)
		Expect(seed.Load(context.Background(), mem)).To(Succeed())
		srv = New(mem, logger)
	})

	get := func(path string) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		body := map[string]any{}
		if rec.Body.Len() > 0 {
			ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		}
		return rec, body
	}

	It("should report health", func() {
		rec, body := get("/healthz")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("ok"))
	})

	Context("collection listings", func() {
		It("should page through a collection", func() {
			rec, body := get("/api/collections/products?limit=3&page=1")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["total"]).To(Equal(float64(7)))
			Expect(body["data"]).To(HaveLen(3))

			rec, body = get("/api/collections/products?limit=3&page=3")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["data"]).To(HaveLen(1))
		})

		It("should return an empty page past the end", func() {
			rec, body := get("/api/collections/users?limit=10&page=5")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["data"]).To(BeEmpty())
		})

		It("should reject an unknown collection", func() {
			rec, _ := get("/api/collections/wishlists")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject invalid paging parameters", func() {
			rec, _ := get("/api/collections/products?limit=0")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec, _ = get("/api/collections/products?page=-2")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("analytics", func() {
		It("should list the available queries", func() {
			rec, body := get("/api/analytics")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["queries"]).To(ContainElement("rating-summary"))
		})

		It("should run a catalog query", func() {
			rec, body := get("/api/analytics/rating-summary")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["count"]).To(Equal(float64(7)))

			results, ok := body["results"].([]any)
			Expect(ok).To(BeTrue())
			first, ok := results[0].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(first["avg_rating"]).To(Equal(float64(5)))
		})

		It("should pass the date window through to the query", func() {
			rec, body := get("/api/analytics/top-products" +
				"?from=2025-05-01T00:00:00Z&to=2025-05-31T23:59:59Z&limit=3")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(body["count"]).To(Equal(float64(3)))
		})

		It("should reject a malformed timestamp", func() {
			rec, _ := get("/api/analytics/top-products?from=May-1&to=May-31")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject an inverted date window", func() {
			rec, body := get("/api/analytics/top-products" +
				"?from=2025-06-01T00:00:00Z&to=2025-05-01T00:00:00Z")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(body["error"]).To(ContainSubstring("window"))
		})

		It("should return 404 for an unknown query", func() {
			rec, _ := get("/api/analytics/does-not-exist")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
