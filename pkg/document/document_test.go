package document

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	It("should widen integers to int64", func() {
		Expect(Normalize(int(3))).To(Equal(int64(3)))
		Expect(Normalize(int32(3))).To(Equal(int64(3)))
		Expect(Normalize(uint8(3))).To(Equal(int64(3)))
	})

	It("should widen float32 to float64", func() {
		Expect(Normalize(float32(1.5))).To(Equal(float64(1.5)))
	})

	It("should convert timestamps to RFC 3339 strings in UTC", func() {
		ts := time.Date(2025, 5, 3, 12, 15, 0, 0, time.FixedZone("SAST", 2*3600))
		Expect(Normalize(ts)).To(Equal("2025-05-03T10:15:00Z"))
	})

	It("should normalize containers recursively", func() {
		doc := Document{"a": []any{int(1), float32(2.5)}, "b": map[string]any{"c": int(7)}}
		norm, ok := Normalize(doc).(Document)
		Expect(ok).To(BeTrue())
		Expect(norm["a"]).To(Equal([]any{int64(1), float64(2.5)}))
		Expect(norm["b"]).To(Equal(map[string]any{"c": int64(7)}))
	})

	It("should convert string slices to generic lists", func() {
		Expect(Normalize([]string{"x", "y"})).To(Equal([]any{"x", "y"}))
	})
})

var _ = Describe("Key", func() {
	It("should be insensitive to field order", func() {
		a := Document{"x": int64(1), "y": "z"}
		b := Document{"y": "z", "x": int64(1)}
		ka, err := Key(a)
		Expect(err).NotTo(HaveOccurred())
		kb, err := Key(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(ka).To(Equal(kb))
	})

	It("should identify an int and its widened form", func() {
		ka, err := KeyAny(int(5))
		Expect(err).NotTo(HaveOccurred())
		kb, err := KeyAny(int64(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(ka).To(Equal(kb))
	})

	It("should distinguish nil from zero", func() {
		ka, err := KeyAny(nil)
		Expect(err).NotTo(HaveOccurred())
		kb, err := KeyAny(int64(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(ka).NotTo(Equal(kb))
	})
})

var _ = Describe("DeepCopy", func() {
	It("should isolate nested containers", func() {
		orig := Document{"items": []any{Document{"qty": int64(1)}}}
		copied := DeepCopy(orig)

		copied["items"].([]any)[0].(Document)["qty"] = int64(99)
		Expect(orig["items"].([]any)[0].(Document)["qty"]).To(Equal(int64(1)))
	})
})

var _ = Describe("JSONPath", func() {
	doc := Document{
		"name": "Espresso Blend",
		"item": Document{"product_id": int64(7), "qty": int64(2)},
	}

	It("should resolve nested fields", func() {
		v, err := GetJSONPath("$.item.qty", doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(2)))
	})

	It("should resolve the root reference", func() {
		v, err := GetJSONPath("$.", doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(doc))
	})

	It("should return nil for a missing field without an error", func() {
		v, err := GetJSONPath("$.no.such.field", doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNil())
	})

	It("should set nested paths, creating intermediate maps", func() {
		target := Document{}
		Expect(SetJSONPath("$.a.b", int64(1), target)).To(Succeed())
		v, err := GetJSONPath("$.a.b", target)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(1)))
	})

	It("should set plain keys directly", func() {
		target := Document{}
		Expect(SetJSONPath("total", 3.5, target)).To(Succeed())
		Expect(target["total"]).To(Equal(3.5))
	})
})

var _ = Describe("Coercion", func() {
	It("should widen ints to floats but not the reverse", func() {
		f, err := AsFloat(int64(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(3.0))

		_, err = AsInt(3.5)
		Expect(err).To(HaveOccurred())
	})

	It("should reject non-numeric values", func() {
		Expect(IsNumeric("42")).To(BeFalse())
		Expect(IsNumeric(true)).To(BeFalse())
		Expect(IsNumeric(int64(42))).To(BeTrue())
	})

	It("should convert typed slices to generic lists", func() {
		v, err := AsList([]int64{1, 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]any{int64(1), int64(2)}))
	})
})
