package pipeline

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

func parseExp(js string) *Expression {
	e := &Expression{}
	ExpectWithOffset(1, json.Unmarshal([]byte(js), e)).To(Succeed())
	return e
}

func evalExp(js string, obj document.Document) any {
	v, err := parseExp(js).Evaluate(EvalCtx{Object: obj, Log: logger})
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("Expression parsing", func() {
	It("should parse scalars into typed literals", func() {
		Expect(parseExp(`true`).Op).To(Equal("@bool"))
		Expect(parseExp(`12`).Op).To(Equal("@int"))
		Expect(parseExp(`3.5`).Op).To(Equal("@float"))
		Expect(parseExp(`"$.name"`).Op).To(Equal("@string"))
		Expect(parseExp(`null`).Op).To(Equal("@null"))
	})

	It("should parse a single @-key map into an operator", func() {
		e := parseExp(`{"@eq": ["$.a", 1]}`)
		Expect(e.Op).To(Equal("@eq"))
		Expect(e.Arg).NotTo(BeNil())
	})

	It("should parse a plain map into a literal dict", func() {
		e := parseExp(`{"a": 1, "b": "$.x"}`)
		Expect(e.Op).To(Equal("@dict"))
	})

	It("should round-trip through JSON", func() {
		for _, js := range []string{
			`{"@and":[{"@gte":["$.order_time","2025-05-01T00:00:00Z"]},{"@lte":["$.order_time","2025-05-31T23:59:59Z"]}]}`,
			`{"@not":{"@eq":["$.p","$.q"]}}`,
		} {
			e := parseExp(js)
			b, err := json.Marshal(e)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(MatchJSON(js))
		}
	})
})

var _ = Describe("Expression evaluation", func() {
	doc := document.Document{
		"name":  "Espresso Blend",
		"price": 120.0,
		"qty":   int64(2),
		"tags":  []any{"coffee", "blend"},
		"item":  document.Document{"product_id": int64(7)},
	}

	It("should dereference field paths", func() {
		Expect(evalExp(`"$.item.product_id"`, doc)).To(Equal(int64(7)))
	})

	It("should return nil for a missing field", func() {
		Expect(evalExp(`"$.missing"`, doc)).To(BeNil())
	})

	It("should treat non-reference strings as literals", func() {
		Expect(evalExp(`"plain"`, doc)).To(Equal("plain"))
	})

	It("should compare numbers across int and float", func() {
		Expect(evalExp(`{"@eq": ["$.qty", 2.0]}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@lt": ["$.qty", "$.price"]}`, doc)).To(Equal(true))
	})

	It("should compare timestamps lexicographically", func() {
		d := document.Document{"order_time": "2025-05-10T14:30:00Z"}
		Expect(evalExp(`{"@gte": ["$.order_time", "2025-05-01T00:00:00Z"]}`, d)).To(Equal(true))
		Expect(evalExp(`{"@lte": ["$.order_time", "2025-05-31T23:59:59Z"]}`, d)).To(Equal(true))
		Expect(evalExp(`{"@gt": ["$.order_time", "2025-06-01T00:00:00Z"]}`, d)).To(Equal(false))
	})

	It("should treat nil as equal only to nil", func() {
		Expect(evalExp(`{"@eq": ["$.missing", "$.alsomissing"]}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@eq": ["$.missing", 0]}`, doc)).To(Equal(false))
	})

	It("should evaluate boolean connectives", func() {
		Expect(evalExp(`{"@and": [true, {"@not": false}]}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@or": [false, false]}`, doc)).To(Equal(false))
	})

	It("should test presence", func() {
		Expect(evalExp(`{"@exists": "$.name"}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@isnil": "$.missing"}`, doc)).To(Equal(true))
	})

	It("should test list membership", func() {
		Expect(evalExp(`{"@in": ["coffee", "$.tags"]}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@in": ["tea", "$.tags"]}`, doc)).To(Equal(false))
	})

	It("should match substrings and patterns", func() {
		Expect(evalExp(`{"@contains": ["$.name", "presso"]}`, doc)).To(Equal(true))
		Expect(evalExp(`{"@regexp": ["$.name", "^Espresso"]}`, doc)).To(Equal(true))
	})

	It("should do arithmetic, staying integral when possible", func() {
		Expect(evalExp(`{"@sum": [1, 2, 3]}`, doc)).To(Equal(int64(6)))
		Expect(evalExp(`{"@sum": [1, 2.5]}`, doc)).To(Equal(3.5))
		Expect(evalExp(`{"@mul": ["$.qty", "$.price"]}`, doc)).To(Equal(240.0))
		Expect(evalExp(`{"@sub": [10, 4]}`, doc)).To(Equal(int64(6)))
	})

	It("should refuse division by zero", func() {
		_, err := parseExp(`{"@div": [1, 0]}`).Evaluate(EvalCtx{Object: doc, Log: logger})
		Expect(err).To(HaveOccurred())
	})

	It("should measure and index lists", func() {
		Expect(evalExp(`{"@len": "$.tags"}`, doc)).To(Equal(int64(2)))
		Expect(evalExp(`{"@first": "$.tags"}`, doc)).To(Equal("coffee"))
		Expect(evalExp(`{"@last": "$.tags"}`, doc)).To(Equal("blend"))
	})

	It("should concatenate strings", func() {
		Expect(evalExp(`{"@concat": ["$.name", "!"]}`, doc)).To(Equal("Espresso Blend!"))
	})

	It("should build literal dicts from the row", func() {
		v := evalExp(`{"p": "$.item.product_id", "n": "$.name"}`, doc)
		Expect(v).To(Equal(document.Document{"p": int64(7), "n": "Espresso Blend"}))
	})

	It("should filter and map with a local subject", func() {
		d := document.Document{"xs": []any{int64(1), int64(2), int64(3)}}
		Expect(evalExp(`{"@filter": [{"@gt": ["$$.", 1]}, "$.xs"]}`, d)).
			To(Equal([]any{int64(2), int64(3)}))
		Expect(evalExp(`{"@map": [{"@mul": ["$$.", 10]}, "$.xs"]}`, d)).
			To(Equal([]any{int64(10), int64(20), int64(30)}))
	})

	It("should report an unknown operator", func() {
		_, err := parseExp(`{"@frobnicate": 1}`).Evaluate(EvalCtx{Object: doc, Log: logger})
		Expect(err).To(HaveOccurred())
	})
})
