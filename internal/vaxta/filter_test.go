package vaxta

import (
	"encoding/json"
	"testing"

	"github.com/BeliaevAndrey/vibeBot/internal/candidate"
	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
)

func hasCondition(f *Filter, field, op string, value any) bool {
	for _, c := range f.Find(field) {
		if c.Op != op {
			continue
		}
		got, _ := json.Marshal(c.Value)
		want, _ := json.Marshal(value)
		if string(got) == string(want) {
			return true
		}
	}
	return false
}

func TestCompileAgeExpandsToBounds(t *testing.T) {
	f := Compile(Fields{FieldAge: 30})

	if len(f.Conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(f.Conditions))
	}
	if !hasCondition(&f, "f_min_age", OpLte, 30) {
		t.Fatal("expected min age <= 30")
	}
	if !hasCondition(&f, "f_offering_max_age", OpGte, 30) {
		t.Fatal("expected max age >= 30")
	}
	if len(f.Find(string(FieldAge))) != 0 {
		t.Fatal("age must not be compared directly")
	}
}

func TestCompileGenderHeadcount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		genders   []string
		wantMen   bool
		wantWomen bool
	}{
		{name: "male only", genders: []string{dictionary.GenderMale}, wantMen: true},
		{name: "female only", genders: []string{dictionary.GenderFemale}, wantWomen: true},
		{name: "both", genders: []string{dictionary.GenderMale, dictionary.GenderFemale}, wantMen: true, wantWomen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := Compile(Fields{FieldGender: tt.genders})

			if !hasCondition(&f, string(FieldGender), OpAnyOf, tt.genders) {
				t.Fatal("expected gender anyOf condition")
			}
			if got := len(f.Find("f_offering_men_needed")) == 1; got != tt.wantMen {
				t.Fatalf("men needed present=%v, want %v", got, tt.wantMen)
			}
			if got := len(f.Find("f_offering_women_needed")) == 1; got != tt.wantWomen {
				t.Fatalf("women needed present=%v, want %v", got, tt.wantWomen)
			}
		})
	}
}

func TestCompileOperatorAsymmetry(t *testing.T) {
	f := Compile(Fields{
		FieldCategory:    []string{dictionary.CategoryWarehouse},
		FieldRate:        []string{dictionary.RateFixed},
		FieldNationality: []string{"gcqez27y5f4", "34ttqq61lvg"},
	})

	if !hasCondition(&f, string(FieldCategory), OpIn, []string{dictionary.CategoryWarehouse}) {
		t.Fatal("expected category $in")
	}
	if !hasCondition(&f, string(FieldRate), OpEq, dictionary.RateFixed) {
		t.Fatal("expected single rate to collapse to $eq")
	}
	if !hasCondition(&f, string(FieldNationality), OpAnyOf, []string{"gcqez27y5f4", "34ttqq61lvg"}) {
		t.Fatal("expected nationality $anyOf")
	}

	both := Compile(Fields{FieldRate: []string{dictionary.RateFixed, dictionary.RatePiecework}})
	if !hasCondition(&both, string(FieldRate), OpAnyOf, []string{dictionary.RateFixed, dictionary.RatePiecework}) {
		t.Fatal("expected multi rate to use $anyOf")
	}
}

func TestCompileWireShape(t *testing.T) {
	f := Compile(Fields{FieldRegion: 5, FieldAge: 28})

	compact, err := f.Compact()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}

	want := `{"$and":[{"$and":[{"f_min_age":{"$lte":28}},{"f_offering_max_age":{"$gte":28}},` +
		`{"f_offering_city":{"id":{"$eq":5}}}]},{"$and":[{"f_offering_status":{"$eq":"2vi89elxqk9"}}]}]}`
	if compact != want {
		t.Fatalf("unexpected filter:\n got %s\nwant %s", compact, want)
	}

	empty := Compile(nil)
	compact, err = empty.Compact()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if compact != `{"$and":[{"$and":[]},{"$and":[{"f_offering_status":{"$eq":"2vi89elxqk9"}}]}]}` {
		t.Fatalf("unexpected empty filter: %s", compact)
	}
}

func TestCompileSkipsEmptyValues(t *testing.T) {
	f := Compile(Fields{FieldGender: []string{}, FieldRegion: 0, FieldNationality: nil})
	if len(f.Conditions) != 0 {
		t.Fatalf("expected no conditions, got %+v", f.Conditions)
	}
}

func TestCompileFromSummary(t *testing.T) {
	regions := dictionary.NewRegions([]dictionary.Place{{ID: 5, Name: "Москва"}, {ID: 6, Name: "Казань"}})
	age := 28

	f := CompileFromSummary(&candidate.Summary{
		Gender:      "мужчина",
		Age:         &age,
		Region:      "Москва",
		JobCategory: "склад",
	}, regions)
	if f == nil {
		t.Fatal("expected filter")
	}

	if !hasCondition(f, "f_offering_city", OpEq, 5) {
		t.Fatal("expected region id equality")
	}
	if !hasCondition(f, "f_min_age", OpLte, 28) || !hasCondition(f, "f_offering_max_age", OpGte, 28) {
		t.Fatal("expected both age bounds")
	}
	if !hasCondition(f, "f_offering_men_needed", OpGte, 1) {
		t.Fatal("expected male headcount")
	}
	if len(f.Find("f_offering_women_needed")) != 0 {
		t.Fatal("did not expect female headcount")
	}
	if !hasCondition(f, string(FieldCategory), OpIn, []string{dictionary.CategoryWarehouse}) {
		t.Fatal("expected warehouse membership")
	}
}

func TestCompileFromSummaryUnresolvable(t *testing.T) {
	regions := dictionary.NewRegions([]dictionary.Place{{ID: 5, Name: "Москва"}})
	zero := 0

	tests := []struct {
		name    string
		summary *candidate.Summary
	}{
		{name: "nil", summary: nil},
		{name: "empty", summary: &candidate.Summary{}},
		{name: "unknown region only", summary: &candidate.Summary{Region: "Атлантида", FullName: "Иванов Иван"}},
		{name: "zero age", summary: &candidate.Summary{Age: &zero}},
		{name: "unknown labels", summary: &candidate.Summary{Gender: "другое", JobCategory: "офис"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := CompileFromSummary(tt.summary, regions); f != nil {
				t.Fatalf("expected no filter, got %+v", f)
			}
		})
	}
}
