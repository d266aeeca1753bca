package report

import (
	"fmt"
	"strings"

	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"go.uber.org/zap"
)

const (
	unspecified = "неуказано"
	dash        = "—"
)

// Offering is a raw offering with human readable fields attached.
type Offering struct {
	Raw *vaxta.RawOffering `json:"raw"`

	GenderLabel          string   `json:"gender_human,omitempty"`
	NationalityLabels    []string `json:"nationality_human,omitempty"`
	CategoryLabel        string   `json:"category_human,omitempty"`
	RateLabel            string   `json:"rate_human,omitempty"`
	RegionName           string   `json:"region_name,omitempty"`
	FormattedDescription string   `json:"description_text"`
}

func (o *Offering) ID() string {
	if o == nil || o.Raw == nil {
		return ""
	}
	return o.Raw.ID
}

func (o *Offering) Name() string {
	if o == nil || o.Raw == nil {
		return ""
	}
	return strings.TrimSpace(o.Raw.Name)
}

// Enrich attaches labels and the formatted description to every raw offering.
// Broken description markup falls back to the raw markup text.
func Enrich(raw []*vaxta.RawOffering, regions *dictionary.Regions, logger *zap.Logger) []*Offering {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]*Offering, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}

		o := &Offering{
			Raw:               r,
			GenderLabel:       strings.Join(dictionary.Gender.Labels(r.Gender), ", "),
			NationalityLabels: dictionary.Nationality.Labels(r.Nationality),
		}
		if r.Category != "" {
			o.CategoryLabel = dictionary.Category.Label(r.Category)
		}
		if r.Rate != "" {
			o.RateLabel = dictionary.Rate.Label(r.Rate)
		}
		if r.RegionID > 0 {
			o.RegionName = regions.Label(r.RegionID)
		}

		text, err := StripHTML(r.Description)
		if err != nil {
			logger.Warn("parsing offering description", zap.String("offering_id", r.ID), zap.Error(err))
			text = r.Description
		}
		o.FormattedDescription = FormatDescription(text, o)

		out = append(out, o)
	}

	return out
}

// FormatDescription builds the full description: title, known sections and footer.
func FormatDescription(text string, o *Offering) string {
	header := fmt.Sprintf("%s\n(идентификатор %s)\n\n", o.Name(), o.ID())
	body := FormatSections(ParseSections(text, SectionHeaders), SectionHeaders)
	footer := Footer(o)

	if body != "" {
		return header + body + "\n\n" + footer
	}
	return strings.TrimRight(header, "\n") + "\n\n" + footer
}

// Footer lists the labelled attributes of an offering.
func Footer(o *Offering) string {
	return fmt.Sprintf("Пол: %s\nГражданство: %s\nКомпания: %s\nФикс/Выработка: %s\nВакансия: %s",
		orDefault(o.GenderLabel, unspecified),
		orDefault(strings.Join(o.NationalityLabels, ", "), unspecified),
		orDefault(o.Name(), dash),
		orDefault(o.RateLabel, unspecified),
		orDefault(o.CategoryLabel, unspecified),
	)
}

// FormatTop renders the first topN offerings as numbered blocks separated by
// "---". A non-positive topN renders all of them.
func FormatTop(offerings []*Offering, topN int) string {
	if topN <= 0 || topN > len(offerings) {
		topN = len(offerings)
	}

	lines := []string{"Вакансия:", ""}
	for i, o := range offerings[:topN] {
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, orDefault(o.Name(), dash)),
			fmt.Sprintf("ID вакансии: %s", orDefault(o.ID(), dash)),
			fmt.Sprintf("Вакансия от: %s", orDefault(lastActivity(o), dash)),
			fmt.Sprintf("Регион: %s", orDefault(o.RegionName, dash)),
			fmt.Sprintf("Пол: %s. Гражданство: %s",
				orDefault(o.GenderLabel, dash),
				orDefault(strings.Join(o.NationalityLabels, ", "), dash)),
			fmt.Sprintf("Категория: %s. Оплата: %s",
				orDefault(o.CategoryLabel, dash),
				orDefault(o.RateLabel, dash)),
			"Описание:",
			orDefault(o.FormattedDescription, dash),
			"",
		)
		if i+1 < topN {
			lines = append(lines, "---", "")
		}
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n")
}

func lastActivity(o *Offering) string {
	if o.Raw == nil {
		return ""
	}
	if o.Raw.UpdatedAt != "" {
		return o.Raw.UpdatedAt
	}
	return o.Raw.CreatedAt
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
