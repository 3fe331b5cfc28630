// Package catalog holds the named analytical queries of the marketplace.
// Every query is a declarative pipeline definition, data rather than code,
// so new analytics can be added without touching the executor.
package catalog

import (
	"fmt"
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/pipeline"
)

// Params carries the caller-supplied arguments of the parameterized
// queries: an inclusive date window (RFC 3339 timestamps) and a result
// cap. Queries that need none of them ignore it.
type Params struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Limit int64  `json:"limit,omitempty"`
}

// Builder produces a ready-to-run pipeline for the given parameters.
type Builder func(Params) (pipeline.Pipeline, error)

var queries = map[string]Builder{
	"most-bought-per-seller": fixed(mostBoughtPerSeller),
	"top-products":           TopProducts,
	"total-sales-per-seller": fixed(totalSalesPerSeller),
	"recommendations":        fixed(recommendations),
	"co-purchases":           fixed(coPurchases),
	"rating-summary":         fixed(ratingSummary),
	"total-revenue":          fixed(totalRevenue),
	"orders-per-user":        fixed(ordersPerUser),
	"wishlist-popularity":    fixed(wishlistPopularity),
}

// Names lists the available queries in lexical order.
func Names() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the pipeline of a named query.
func Build(name string, params Params) (pipeline.Pipeline, error) {
	b, ok := queries[name]
	if !ok {
		return pipeline.Pipeline{}, fmt.Errorf("unknown query %q", name)
	}
	return b(params)
}

func fixed(def string) Builder {
	return func(_ Params) (pipeline.Pipeline, error) { return parse(def) }
}

func parse(def string) (pipeline.Pipeline, error) {
	p := pipeline.Pipeline{}
	if err := yaml.Unmarshal([]byte(def), &p); err != nil {
		return pipeline.Pipeline{}, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	if err := p.Validate(); err != nil {
		return pipeline.Pipeline{}, err
	}
	return p, nil
}

// mostBoughtPerSeller ranks, per seller, the items by units sold.
const mostBoughtPerSeller = `
collection: orders
stages:
  - "@unwind": "$.items"
  - "@lookup":
      from: products
      localField: "$.items.product_id"
      foreignField: "$._id"
      as: product
  - "@unwind": "$.product"
  - "@group":
      key:
        seller: "$.product.seller_id"
        product: "$.product.name"
      fields:
        total_sold: {"@sum": "$.items.qty"}
  - "@sort":
      - field: "$._id.seller"
      - field: "$.total_sold"
        order: desc
`

// TopProducts ranks products by units sold inside an inclusive date
// window. The window is checked up front so a malformed range never
// starts a pipeline.
func TopProducts(params Params) (pipeline.Pipeline, error) {
	if params.From == "" || params.To == "" {
		return pipeline.Pipeline{}, pipeline.NewInvalidRangeError("@match",
			"both ends of the date window are required")
	}
	if params.From > params.To {
		return pipeline.Pipeline{}, pipeline.NewInvalidRangeError("@match",
			fmt.Sprintf("empty date window: %q is after %q", params.From, params.To))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	return parse(fmt.Sprintf(`
collection: orders
stages:
  - "@match":
      "@and":
        - "@gte": ["$.order_time", %q]
        - "@lte": ["$.order_time", %q]
  - "@unwind": "$.items"
  - "@group":
      key: "$.items.product_id"
      fields:
        total_sold: {"@sum": "$.items.qty"}
  - "@sort":
      - field: "$.total_sold"
        order: desc
  - "@limit": %d
`, params.From, params.To, limit))
}

// totalSalesPerSeller computes per-seller revenue as the sum of quantity
// times unit price over every order item.
const totalSalesPerSeller = `
collection: orders
stages:
  - "@unwind": "$.items"
  - "@lookup":
      from: products
      localField: "$.items.product_id"
      foreignField: "$._id"
      as: product
  - "@unwind": "$.product"
  - "@group":
      key: "$.product.seller_id"
      fields:
        total_sales: {"@sum": {"@mul": ["$.items.qty", "$.product.price"]}}
  - "@sort":
      - field: "$.total_sales"
        order: desc
`

// recommendations is the historical co-purchase query, kept for
// compatibility. Grouping the unwound per-user product sets by the
// product itself associates every product with itself only; see
// coPurchases for the pairwise version.
const recommendations = `
collection: orders
stages:
  - "@unwind": "$.items"
  - "@group":
      key: "$.user_id"
      fields:
        products: {"@addToSet": "$.items.product_id"}
  - "@unwind": "$.products"
  - "@group":
      key: "$.products"
      fields:
        also_bought_with: {"@addToSet": "$.products"}
`

// coPurchases associates every product with the other products bought by
// the same users: the per-user distinct product set is paired with itself,
// the diagonal is filtered out, and the remaining partners accumulate per
// product.
const coPurchases = `
collection: orders
stages:
  - "@unwind": "$.items"
  - "@group":
      key: "$.user_id"
      fields:
        products: {"@addToSet": "$.items.product_id"}
  - "@project":
      p: "$.products"
      q: "$.products"
  - "@unwind": "$.p"
  - "@unwind": "$.q"
  - "@match": {"@not": {"@eq": ["$.p", "$.q"]}}
  - "@group":
      key: "$.p"
      fields:
        also_bought_with: {"@addToSet": "$.q"}
`

// ratingSummary aggregates review ratings and engagement per product.
// Products without reviews never appear.
const ratingSummary = `
collection: reviews
stages:
  - "@group":
      key: "$.product_id"
      fields:
        avg_rating: {"@avg": "$.rating"}
        total_likes: {"@sum": "$.likes"}
        total_reviews: {"@count": null}
  - "@sort":
      - field: "$.avg_rating"
        order: desc
      - field: "$.total_reviews"
        order: desc
`

// totalRevenue folds every order into a single revenue figure.
const totalRevenue = `
collection: orders
stages:
  - "@group":
      key: null
      fields:
        revenue: {"@sum": "$.total"}
        orders: {"@count": null}
`

// wishlistPopularity counts, per product, the users who wishlisted it.
// Wishlist entries are soft references, so entries pointing at removed
// products fall out at the product join.
const wishlistPopularity = `
collection: users
stages:
  - "@unwind": "$.wishlist"
  - "@lookup":
      from: products
      localField: "$.wishlist"
      foreignField: "$._id"
      as: product
  - "@unwind": "$.product"
  - "@group":
      key: "$.product._id"
      fields:
        wishers: {"@addToSet": "$._id"}
        wish_count: {"@count": null}
  - "@sort":
      - field: "$.wish_count"
        order: desc
`

// ordersPerUser summarizes ordering activity per user.
const ordersPerUser = `
collection: orders
stages:
  - "@group":
      key: "$.user_id"
      fields:
        order_count: {"@count": null}
        total_spent: {"@sum": "$.total"}
  - "@sort":
      - field: "$.total_spent"
        order: desc
`
