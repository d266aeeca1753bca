package report

import (
	"strings"
	"testing"

	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "  ", expect: ""},
		{name: "paragraphs", input: "<p>ГРАФИК:</p><p> 2/2 по 12 часов </p>", expect: "ГРАФИК:\n2/2 по 12 часов"},
		{name: "link replaced by href", input: `<p>Фото: <a href="https://disk.example/1">Google диск</a></p>`, expect: "Фото:\nhttps://disk.example/1"},
		{name: "anchor without href keeps text", input: `<a name="top">Наверх</a>`, expect: "Наверх"},
		{name: "script skipped", input: `<div>текст<script>alert(1)</script></div>`, expect: "текст"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := StripHTML(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestParseSections(t *testing.T) {
	text := strings.Join([]string{
		"Вступление, которое никуда не попадёт",
		"ВАКАНСИЯ:",
		"Комплектовщик",
		"на склад",
		"график",
		": 2/2",
		"ЛИШНЕЕ",
		"СТАВКА :",
		"",
		"ПИТАНИЕ",
		"Бесплатно",
		"ВАКАНСИЯ",
		"Грузчик",
	}, "\n")

	sections := ParseSections(text, SectionHeaders)

	want := []Section{
		{Header: "ВАКАНСИЯ", Content: "Грузчик"},
		{Header: "ГРАФИК", Content: "2/2\nЛИШНЕЕ"},
		{Header: "ПИТАНИЕ", Content: "Бесплатно"},
	}

	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %+v", len(want), sections)
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Fatalf("section %d: expected %+v, got %+v", i, want[i], sections[i])
		}
	}

	if ParseSections("   ", SectionHeaders) != nil {
		t.Fatal("expected nil for blank text")
	}
}

func TestFormatSectionsDigitContentIsInline(t *testing.T) {
	sections := ParseSections("СТАВКА:\n350   руб/час\n  после испытательного\nОБЯЗАННОСТИ\nсборка заказов\nупаковка", SectionHeaders)
	got := FormatSections(sections, SectionHeaders)

	want := "ОБЯЗАННОСТИ:\n\tсборка заказов\n\tупаковка\nСТАВКА: 350 руб/час после испытательного"
	if got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestFormatSectionsUnknownHeadersFollow(t *testing.T) {
	sections := []Section{
		{Header: "БОНУС", Content: "есть"},
		{Header: "ГРАФИК", Content: "5/2"},
		{Header: "ДОПЛАТЫ", Content: "ночные"},
	}

	got := FormatSections(sections, SectionHeaders)
	want := "ГРАФИК: 5/2\nБОНУС:\n\tесть\nДОПЛАТЫ:\n\tночные"
	if got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestEnrich(t *testing.T) {
	regions := dictionary.NewRegions([]dictionary.Place{{ID: 5, Name: "Москва"}})
	raw := []*vaxta.RawOffering{
		{
			ID:          "101",
			Name:        "Склад Подольск",
			Gender:      []string{dictionary.GenderMale, dictionary.GenderFemale},
			Nationality: []string{"gcqez27y5f4", "34ttqq61lvg"},
			Category:    dictionary.CategoryWarehouse,
			Rate:        dictionary.RateFixed,
			RegionID:    5,
			Description: "<p>СТАВКА</p><p>3000 руб/смена</p>",
		},
		{ID: "102", RegionID: 9},
	}

	offerings := Enrich(raw, regions, zap.NewNop())
	if len(offerings) != 2 {
		t.Fatalf("expected 2 offerings, got %d", len(offerings))
	}

	first := offerings[0]
	if first.GenderLabel != "мужчина, женщина" {
		t.Fatalf("unexpected gender label %q", first.GenderLabel)
	}
	if strings.Join(first.NationalityLabels, "|") != "РФ|Узбекистан" {
		t.Fatalf("unexpected nationality labels %v", first.NationalityLabels)
	}
	if first.CategoryLabel != "Склад" || first.RateLabel != "Фикс" || first.RegionName != "Москва" {
		t.Fatalf("unexpected labels %+v", first)
	}

	wantDesc := "Склад Подольск\n(идентификатор 101)\n\nСТАВКА: 3000 руб/смена\n\n" +
		"Пол: мужчина, женщина\nГражданство: РФ, Узбекистан\nКомпания: Склад Подольск\nФикс/Выработка: Фикс\nВакансия: Склад"
	if first.FormattedDescription != wantDesc {
		t.Fatalf("unexpected description:\n%q\nwant\n%q", first.FormattedDescription, wantDesc)
	}
	if line := strings.Split(first.FormattedDescription, "\n")[3]; line != "СТАВКА: 3000 руб/смена" {
		t.Fatalf("expected inline section line, got %q", line)
	}

	second := offerings[1]
	if second.RegionName != "Область 9" {
		t.Fatalf("expected synthetic region name, got %q", second.RegionName)
	}
	wantEmpty := "\n(идентификатор 102)\n\nПол: неуказано\nГражданство: неуказано\nКомпания: —\nФикс/Выработка: неуказано\nВакансия: неуказано"
	if second.FormattedDescription != wantEmpty {
		t.Fatalf("unexpected description:\n%q\nwant\n%q", second.FormattedDescription, wantEmpty)
	}
}

func TestEnrichLogsNothingForValidMarkup(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	Enrich([]*vaxta.RawOffering{{ID: "1", Description: "<b>ГРАФИК</b><i>5/2"}, nil}, nil, zap.New(core))

	if observed.Len() != 0 {
		t.Fatalf("expected no warnings, got %d", observed.Len())
	}
}

func TestFormatTop(t *testing.T) {
	offerings := []*Offering{
		{
			Raw:                  &vaxta.RawOffering{ID: "1", Name: "Первая", CreatedAt: "2024-01-01", UpdatedAt: "2024-02-01"},
			GenderLabel:          "мужчина",
			NationalityLabels:    []string{"РФ"},
			CategoryLabel:        "Склад",
			RateLabel:            "Фикс",
			RegionName:           "Москва",
			FormattedDescription: "desc one",
		},
		{
			Raw:         &vaxta.RawOffering{ID: "2", Name: "Вторая", CreatedAt: "2024-01-05"},
			GenderLabel: "женщина",
		},
		{Raw: &vaxta.RawOffering{ID: "3", Name: "Третья"}},
	}

	got := FormatTop(offerings, 2)
	want := strings.Join([]string{
		"Вакансия:",
		"",
		"1. Первая",
		"ID вакансии: 1",
		"Вакансия от: 2024-02-01",
		"Регион: Москва",
		"Пол: мужчина. Гражданство: РФ",
		"Категория: Склад. Оплата: Фикс",
		"Описание:",
		"desc one",
		"",
		"---",
		"",
		"2. Вторая",
		"ID вакансии: 2",
		"Вакансия от: 2024-01-05",
		"Регион: —",
		"Пол: женщина. Гражданство: —",
		"Категория: —. Оплата: —",
		"Описание:",
		"—",
	}, "\n")

	if got != want {
		t.Fatalf("unexpected report:\n%s\nwant\n%s", got, want)
	}

	if all := FormatTop(offerings, 0); !strings.Contains(all, "3. Третья") {
		t.Fatal("expected non-positive topN to render everything")
	}
	if strings.Count(FormatTop(offerings, 10), "---") != 2 {
		t.Fatal("expected dividers only between blocks")
	}
}
