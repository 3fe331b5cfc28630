package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage is one step of an aggregation pipeline. Stages are declared as
// single-key JSON/YAML maps whose key names the stage:
//
//	{"@match":  <bool expression>}
//	{"@unwind": "$.items"}
//	{"@lookup": {"from": "products", "localField": "$.items.product_id",
//	             "foreignField": "$._id", "as": "product"}}
//	{"@project": {"name": "$.name", "total": {"@mul": ["$.qty", "$.price"]}}}
//	{"@group":  {"key": "$.category", "fields": {"n": {"@count": null}}}}
//	{"@sort":   [{"field": "$.n", "order": "desc"}]}
//	{"@limit":  5}
//
// Exactly one of the stage fields is set.
type Stage struct {
	Match   *Expression
	Unwind  string
	Lookup  *LookupStage
	Project *Expression
	Group   *GroupStage
	Sort    []SortKey
	Limit   *int64
}

// LookupStage is a left outer equality join against another collection:
// for every input document the rows of From whose ForeignField equals the
// document's LocalField are appended under As as a list.
type LookupStage struct {
	From         string `json:"from"`
	LocalField   string `json:"localField"`
	ForeignField string `json:"foreignField"`
	As           string `json:"as"`
}

// GroupStage partitions the input by Key and folds each partition into a
// single output document via the named accumulators. A null Key collapses
// the whole input into one partition.
type GroupStage struct {
	Key    *Expression            `json:"key"`
	Fields map[string]Accumulator `json:"fields"`
}

// SortKey is one component of a sort order.
type SortKey struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Descending reports whether the key sorts in reverse order. Ascending is
// the default.
func (k SortKey) Descending() bool { return k.Order == OrderDesc }

// Accumulator folds the values an expression takes over a group partition.
// It is declared as a single-key map, e.g. {"@sum": "$.qty"} or
// {"@count": null}.
type Accumulator struct {
	Op  string
	Arg *Expression
}

const (
	AccSum      = "@sum"
	AccAvg      = "@avg"
	AccMin      = "@min"
	AccMax      = "@max"
	AccCount    = "@count"
	AccFirst    = "@first"
	AccLast     = "@last"
	AccPush     = "@push"
	AccAddToSet = "@addToSet"
)

func (a *Accumulator) UnmarshalJSON(b []byte) error {
	cv := map[string]*Expression{}
	if err := json.Unmarshal(b, &cv); err != nil || len(cv) != 1 {
		return NewUnmarshalError("accumulator", string(b))
	}

	for op, arg := range cv {
		if len(op) == 0 || op[0] != '@' {
			return NewUnmarshalError("accumulator", string(b))
		}
		*a = Accumulator{Op: op, Arg: arg}
	}
	return nil
}

func (a Accumulator) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*Expression{a.Op: a.Arg})
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	cv := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &cv); err != nil || len(cv) != 1 {
		return NewUnmarshalError("stage", string(b))
	}

	op, raw := "", json.RawMessage(nil)
	for k, v := range cv {
		op, raw = k, v
	}

	*s = Stage{}
	switch op {
	case "@match":
		s.Match = &Expression{}
		if err := json.Unmarshal(raw, s.Match); err != nil {
			return err
		}

	case "@unwind":
		if err := json.Unmarshal(raw, &s.Unwind); err != nil {
			return NewUnmarshalError("unwind path", string(raw))
		}

	case "@lookup":
		s.Lookup = &LookupStage{}
		if err := json.Unmarshal(raw, s.Lookup); err != nil {
			return NewUnmarshalError("lookup stage", string(raw))
		}

	case "@project":
		s.Project = &Expression{}
		if err := json.Unmarshal(raw, s.Project); err != nil {
			return err
		}

	case "@group":
		s.Group = &GroupStage{}
		if err := json.Unmarshal(raw, s.Group); err != nil {
			return err
		}

	case "@sort":
		if err := json.Unmarshal(raw, &s.Sort); err != nil {
			return NewUnmarshalError("sort keys", string(raw))
		}

	case "@limit":
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return NewUnmarshalError("limit", string(raw))
		}
		s.Limit = &n

	default:
		return NewUnmarshalError("stage", string(b))
	}

	return nil
}

func (s Stage) MarshalJSON() ([]byte, error) {
	switch {
	case s.Match != nil:
		return json.Marshal(map[string]*Expression{"@match": s.Match})
	case s.Unwind != "":
		return json.Marshal(map[string]string{"@unwind": s.Unwind})
	case s.Lookup != nil:
		return json.Marshal(map[string]*LookupStage{"@lookup": s.Lookup})
	case s.Project != nil:
		return json.Marshal(map[string]*Expression{"@project": s.Project})
	case s.Group != nil:
		return json.Marshal(map[string]*GroupStage{"@group": s.Group})
	case s.Sort != nil:
		return json.Marshal(map[string][]SortKey{"@sort": s.Sort})
	case s.Limit != nil:
		return json.Marshal(map[string]int64{"@limit": *s.Limit})
	default:
		return nil, fmt.Errorf("empty stage")
	}
}

// Name returns the stage operator, e.g. "@group".
func (s Stage) Name() string {
	switch {
	case s.Match != nil:
		return "@match"
	case s.Unwind != "":
		return "@unwind"
	case s.Lookup != nil:
		return "@lookup"
	case s.Project != nil:
		return "@project"
	case s.Group != nil:
		return "@group"
	case s.Sort != nil:
		return "@sort"
	case s.Limit != nil:
		return "@limit"
	default:
		return "<empty>"
	}
}

// Blocking reports whether the stage must materialize its full input
// before it can emit output.
func (s Stage) Blocking() bool { return s.Group != nil || s.Sort != nil }

// Validate checks the structural parameters of a stage. Range and shape
// problems are caught here, before any document is pulled.
func (s Stage) Validate() error {
	switch {
	case s.Unwind != "":
		if !strings.HasPrefix(s.Unwind, "$") {
			return NewInvalidRangeError("@unwind",
				fmt.Sprintf("path %q must be a field reference", s.Unwind))
		}

	case s.Lookup != nil:
		l := s.Lookup
		if l.From == "" || l.LocalField == "" || l.ForeignField == "" || l.As == "" {
			return NewInvalidRangeError("@lookup",
				"from, localField, foreignField and as are all required")
		}

	case s.Group != nil:
		if len(s.Group.Fields) == 0 {
			return NewInvalidRangeError("@group", "at least one accumulator is required")
		}
		for name, acc := range s.Group.Fields {
			switch acc.Op {
			case AccSum, AccAvg, AccMin, AccMax, AccCount, AccFirst, AccLast,
				AccPush, AccAddToSet:
			default:
				return NewInvalidRangeError("@group",
					fmt.Sprintf("unknown accumulator %q for field %q", acc.Op, name))
			}
			if acc.Op != AccCount && acc.Arg == nil {
				return NewInvalidRangeError("@group",
					fmt.Sprintf("accumulator %q for field %q needs an argument",
						acc.Op, name))
			}
		}

	case s.Sort != nil:
		if len(s.Sort) == 0 {
			return NewInvalidRangeError("@sort", "at least one sort key is required")
		}
		for _, k := range s.Sort {
			if k.Field == "" {
				return NewInvalidRangeError("@sort", "empty sort field")
			}
			if k.Order != "" && k.Order != OrderAsc && k.Order != OrderDesc {
				return NewInvalidRangeError("@sort",
					fmt.Sprintf("order must be %q or %q, got %q",
						OrderAsc, OrderDesc, k.Order))
			}
		}

	case s.Limit != nil:
		if *s.Limit < 0 {
			return NewInvalidRangeError("@limit",
				fmt.Sprintf("limit must be non-negative, got %d", *s.Limit))
		}

	case s.Match == nil && s.Project == nil:
		return NewInvalidRangeError(s.Name(), "empty stage")
	}

	return nil
}

func (s Stage) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}
