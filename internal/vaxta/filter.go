package vaxta

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
)

// FieldKey names a filterable offering attribute.
type FieldKey string

const (
	FieldAge         FieldKey = "current_age"
	FieldGender      FieldKey = "f_offering_gender"
	FieldCategory    FieldKey = "f_offering_offering"
	FieldRegion      FieldKey = "f_778clr1gcvp"
	FieldNationality FieldKey = "f_offering_nationality"
	FieldRate        FieldKey = "f_offering_rate"
)

// Query operators understood by the platform.
const (
	OpEq    = "$eq"
	OpGte   = "$gte"
	OpLte   = "$lte"
	OpIn    = "$in"
	OpAnyOf = "$anyOf"
	OpAnd   = "$and"
)

// FieldOrder is the order conditions are compiled in and offered in prompts.
var FieldOrder = []FieldKey{
	FieldAge,
	FieldGender,
	FieldCategory,
	FieldRegion,
	FieldNationality,
	FieldRate,
}

// FieldLabels holds human names of the fields.
var FieldLabels = map[FieldKey]string{
	FieldAge:         "Возраст",
	FieldGender:      "Пол",
	FieldCategory:    "Категория работы",
	FieldRegion:      "Область",
	FieldNationality: "Гражданство",
	FieldRate:        "Тип оплаты",
}

// Fields maps a field to its chosen value: an int, a string or a list of codes.
type Fields map[FieldKey]any

// Condition is a single predicate {"field": {"op": value}}. When Sub is set the
// comparison is nested one level deeper: {"field": {"sub": {"op": value}}}.
type Condition struct {
	Field string
	Sub   string
	Op    string
	Value any
}

func (c Condition) MarshalJSON() ([]byte, error) {
	var inner any = map[string]any{c.Op: c.Value}
	if c.Sub != "" {
		inner = map[string]any{c.Sub: inner}
	}
	return json.Marshal(map[string]any{c.Field: inner})
}

// Filter is a compiled offering query. It is never modified after Compile.
type Filter struct {
	Conditions []Condition
	// Status is appended to the query as a separate top-level clause.
	Status []Condition
}

func (f Filter) MarshalJSON() ([]byte, error) {
	main := f.Conditions
	if main == nil {
		main = []Condition{}
	}
	status := f.Status
	if status == nil {
		status = []Condition{}
	}

	return json.Marshal(map[string]any{
		OpAnd: []any{
			map[string]any{OpAnd: main},
			map[string]any{OpAnd: status},
		},
	})
}

// Compact renders the filter the way it is passed in the query string.
func (f *Filter) Compact() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshal filter: %w", err)
	}
	return string(data), nil
}

// Find returns conditions on the given field.
func (f *Filter) Find(field string) []Condition {
	if f == nil {
		return nil
	}
	var found []Condition
	for _, c := range f.Conditions {
		if c.Field == field {
			found = append(found, c)
		}
	}
	return found
}

// Compile builds a filter from chosen field values. Nil values and empty lists
// are skipped. Known fields go first in FieldOrder, unknown ones follow sorted
// by key.
func Compile(fields Fields) Filter {
	conditions := make([]Condition, 0, len(fields)+2)

	for _, key := range orderedKeys(fields) {
		conditions = append(conditions, compileField(key, fields[key])...)
	}

	return Filter{
		Conditions: conditions,
		Status: []Condition{
			{Field: "f_offering_status", Op: OpEq, Value: dictionary.StatusPublished},
		},
	}
}

func compileField(key FieldKey, value any) []Condition {
	field := string(key)

	switch v := value.(type) {
	case nil:
		return nil
	case int:
		switch key {
		case FieldAge:
			return []Condition{
				{Field: "f_min_age", Op: OpLte, Value: v},
				{Field: "f_offering_max_age", Op: OpGte, Value: v},
			}
		case FieldRegion:
			if v <= 0 {
				return nil
			}
			return []Condition{{Field: "f_offering_city", Sub: "id", Op: OpEq, Value: v}}
		default:
			return []Condition{{Field: field, Op: OpGte, Value: v}}
		}
	case string:
		if v == "" {
			return nil
		}
		return []Condition{{Field: field, Op: OpGte, Value: v}}
	case []string:
		if len(v) == 0 {
			return nil
		}
		list := slices.Clone(v)
		switch {
		case key == FieldCategory:
			return []Condition{{Field: field, Op: OpIn, Value: list}}
		case key == FieldRate && len(list) == 1:
			return []Condition{{Field: field, Op: OpEq, Value: list[0]}}
		case key == FieldGender:
			out := []Condition{{Field: field, Op: OpAnyOf, Value: list}}
			if slices.Contains(list, dictionary.GenderMale) {
				out = append(out, Condition{Field: "f_offering_men_needed", Op: OpGte, Value: 1})
			}
			if slices.Contains(list, dictionary.GenderFemale) {
				out = append(out, Condition{Field: "f_offering_women_needed", Op: OpGte, Value: 1})
			}
			return out
		default:
			return []Condition{{Field: field, Op: OpAnyOf, Value: list}}
		}
	default:
		return nil
	}
}

func orderedKeys(fields Fields) []FieldKey {
	keys := make([]FieldKey, 0, len(fields))
	for _, key := range FieldOrder {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
		}
	}

	var extra []FieldKey
	for key := range fields {
		if !slices.Contains(FieldOrder, key) {
			extra = append(extra, key)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(keys, extra...)
}

// FieldsFromSummary maps the resolvable parts of a candidate summary onto filter fields.
func FieldsFromSummary(s *candidate.Summary, regions *dictionary.Regions) Fields {
	fields := Fields{}
	if s == nil {
		return fields
	}

	if id, ok := regions.ID(s.Region); ok {
		fields[FieldRegion] = id
	}

	if code, ok := dictionary.Gender.Code(s.Gender); ok {
		fields[FieldGender] = []string{code}
	}

	if s.Age != nil && *s.Age > 0 {
		fields[FieldAge] = *s.Age
	}

	if code, ok := dictionary.Category.Code(s.JobCategory); ok {
		fields[FieldCategory] = []string{code}
	}

	return fields
}

// CompileFromSummary compiles a filter from a candidate summary. It returns nil
// when nothing in the summary resolves, which means the search must be skipped.
func CompileFromSummary(s *candidate.Summary, regions *dictionary.Regions) *Filter {
	fields := FieldsFromSummary(s, regions)
	if len(fields) == 0 {
		return nil
	}

	filter := Compile(fields)
	return &filter
}
