package report

import (
	"slices"
	"strings"
	"unicode"
)

// SectionHeaders is the recognized vocabulary of description sections in
// output order.
var SectionHeaders = []string{
	"ВАКАНСИЯ",
	"МЕСТНЫЙ ПЕРСОНАЛ",
	"СБ",
	"ОФОРМЛЕНИЕ",
	"ДОКУМЕНТЫ",
	"ОБЯЗАННОСТИ",
	"СТАВКА",
	"РАСЧЕТ",
	"АВАНС",
	"ПИТАНИЕ",
	"ГРАФИК",
	"УДЕРЖАНИЕ",
	"РЕГИСТРАЦИЯ",
	"ЗАСЕЛЕНИЕ",
	"АДРЕС РАБОТЫ",
	"ТРАНСПОРТ",
	"ФОТО ПРОЖИВАНИЯ",
}

// Section is a named part of an offering description.
type Section struct {
	Header  string
	Content string
}

// ParseSections splits plain text into sections. A section starts at a line that
// holds only one of headers, optionally followed by a colon, compared without
// regard to case. Text before the first header is dropped, as are sections that
// end up empty. A repeated header replaces the earlier content but keeps its
// position. Sections come back in first-seen order.
func ParseSections(text string, headers []string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		sections []Section
		current  string
		lines    []string
	)

	flush := func() {
		if current == "" || len(lines) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if content == "" {
			return
		}
		idx := slices.IndexFunc(sections, func(s Section) bool { return s.Header == current })
		if idx >= 0 {
			sections[idx].Content = content
			return
		}
		sections = append(sections, Section{Header: current, Content: content})
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)

		if header, ok := matchHeader(stripped, headers); ok {
			flush()
			current = header
			lines = nil
			continue
		}

		if current == "" {
			continue
		}

		if len(lines) == 0 && strings.HasPrefix(stripped, ":") {
			lines = append(lines, strings.TrimSpace(strings.TrimLeft(stripped, ":")))
			continue
		}
		lines = append(lines, line)
	}
	flush()

	return sections
}

func matchHeader(line string, headers []string) (string, bool) {
	candidate := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	if candidate == "" {
		return "", false
	}
	for _, h := range headers {
		if strings.EqualFold(candidate, h) {
			return h, true
		}
	}
	return "", false
}

// FormatSections renders sections in the given order; sections whose header is
// not in order follow in their original order. Content that starts with a digit
// is put on the header line with whitespace collapsed, anything else goes below
// the header with every line indented by a tab.
func FormatSections(sections []Section, order []string) string {
	byHeader := make(map[string]string, len(sections))
	for _, s := range sections {
		byHeader[s.Header] = s.Content
	}

	headers := slices.Clone(order)
	for _, s := range sections {
		if !slices.Contains(headers, s.Header) {
			headers = append(headers, s.Header)
		}
	}

	out := make([]string, 0, len(sections))
	for _, h := range headers {
		content, ok := byHeader[h]
		if !ok || content == "" {
			continue
		}

		if startsWithDigit(content) {
			out = append(out, h+": "+strings.Join(strings.Fields(content), " "))
			continue
		}

		lines := strings.Split(content, "\n")
		for i, l := range lines {
			lines[i] = "\t" + l
		}
		out = append(out, h+":\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(out, "\n")
}

func startsWithDigit(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		return unicode.IsDigit(r)
	}
	return false
}
