package candidate

import (
	"strings"
	"time"
)

const (
	GenderMale   = "мужчина"
	GenderFemale = "женщина"

	JobWarehouse  = "склад"
	JobProduction = "производство"

	dateLayout = "2006-01-02"
)

// Summary is the structured distillation of a finished questionnaire.
// Empty strings and a nil Age mean the value is unknown.
type Summary struct {
	FullName    string `json:"full_name,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	Patronymic  string `json:"patronymic,omitempty"`
	Gender      string `json:"gender,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Age         *int   `json:"age,omitempty"`
	JobCategory string `json:"job_type,omitempty"`
	Region      string `json:"region,omitempty"`
}

// Normalize trims every field, drops values outside of the known vocabularies
// and computes Age from BirthDate when the age itself is missing.
func (s *Summary) Normalize(today time.Time) {
	if s == nil {
		return
	}

	s.FullName = strings.Join(strings.Fields(s.FullName), " ")
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.Patronymic = strings.TrimSpace(s.Patronymic)
	s.Region = strings.TrimSpace(s.Region)

	s.Gender = normalizeGender(s.Gender)
	s.JobCategory = normalizeJob(s.JobCategory)

	s.BirthDate = strings.TrimSpace(s.BirthDate)
	birth, err := time.Parse(dateLayout, s.BirthDate)
	if err != nil {
		s.BirthDate = ""
	}

	if s.Age != nil && *s.Age <= 0 {
		s.Age = nil
	}

	if s.Age == nil && s.BirthDate != "" {
		if age := AgeAt(birth, today); age > 0 {
			s.Age = &age
		}
	}

	if s.FirstName == "" && s.Patronymic == "" {
		// Russian order: surname, first name, patronymic.
		parts := strings.Fields(s.FullName)
		if len(parts) >= 2 {
			s.FirstName = parts[1]
		}
		if len(parts) >= 3 {
			s.Patronymic = parts[2]
		}
	}
}

// AgeAt returns full years between birth and today.
func AgeAt(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}

// NamePatronymic returns "Имя Отчество" for addressing the candidate.
func (s *Summary) NamePatronymic() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if s.FirstName != "" {
		parts = append(parts, s.FirstName)
	}
	if s.Patronymic != "" {
		parts = append(parts, s.Patronymic)
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether nothing useful for a search was extracted.
func (s *Summary) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Gender == "" && s.Age == nil && s.JobCategory == "" && s.Region == ""
}

func normalizeGender(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case GenderMale, "male", "м", "муж", "мужской":
		return GenderMale
	case GenderFemale, "female", "ж", "жен", "женский":
		return GenderFemale
	default:
		return ""
	}
}

func normalizeJob(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case JobWarehouse, "warehouse":
		return JobWarehouse
	case JobProduction, "production":
		return JobProduction
	default:
		return ""
	}
}
