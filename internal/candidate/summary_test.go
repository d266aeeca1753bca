package candidate

import (
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestAgeAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		birth  string
		today  string
		expect int
	}{
		{name: "birthday passed", birth: "1990-03-10", today: "2024-05-01", expect: 34},
		{name: "birthday today", birth: "1990-05-01", today: "2024-05-01", expect: 34},
		{name: "birthday later this month", birth: "1990-05-20", today: "2024-05-01", expect: 33},
		{name: "birthday later this year", birth: "1990-11-01", today: "2024-05-01", expect: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AgeAt(date(t, tt.birth), date(t, tt.today)); got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestNormalizeComputesAgeOnlyWhenMissing(t *testing.T) {
	today := date(t, "2024-05-01")

	s := &Summary{BirthDate: "1996-06-15"}
	s.Normalize(today)
	if s.Age == nil || *s.Age != 27 {
		t.Fatalf("expected computed age 27, got %v", s.Age)
	}

	explicit := 40
	s = &Summary{BirthDate: "1996-06-15", Age: &explicit}
	s.Normalize(today)
	if *s.Age != 40 {
		t.Fatalf("expected explicit age to win, got %d", *s.Age)
	}

	s = &Summary{BirthDate: "15.06.1996"}
	s.Normalize(today)
	if s.Age != nil || s.BirthDate != "" {
		t.Fatalf("expected malformed date to be dropped, got %+v", s)
	}
}

func TestNormalizeVocabulary(t *testing.T) {
	s := &Summary{
		FullName:    "  Иванов   Пётр Сергеевич ",
		Gender:      " Мужчина",
		JobCategory: "Склад",
		Region:      " Москва ",
	}
	s.Normalize(date(t, "2024-05-01"))

	if s.Gender != GenderMale {
		t.Fatalf("unexpected gender: %q", s.Gender)
	}
	if s.JobCategory != JobWarehouse {
		t.Fatalf("unexpected job: %q", s.JobCategory)
	}
	if s.Region != "Москва" {
		t.Fatalf("unexpected region: %q", s.Region)
	}
	if got := s.NamePatronymic(); got != "Пётр Сергеевич" {
		t.Fatalf("unexpected name: %q", got)
	}

	s = &Summary{Gender: "unknown", JobCategory: "офис"}
	s.Normalize(date(t, "2024-05-01"))
	if s.Gender != "" || s.JobCategory != "" {
		t.Fatalf("expected unknown values to be cleared, got %+v", s)
	}
	if !s.IsEmpty() {
		t.Fatal("expected summary to be empty")
	}
}
