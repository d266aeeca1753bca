package dictionary

import (
	"strings"
)

// Codes used by the job platform for attribute values.
const (
	GenderFemale = "08i2iwrzqi2"
	GenderMale   = "q3slmijbifh"

	CategoryWarehouse  = "m686ynzq3hk"
	CategoryProduction = "egphzfob65p"

	RatePiecework = "0xzahoxb7p6"
	RateFixed     = "yumhk3a93le"

	// StatusPublished marks offerings that are open for candidates.
	StatusPublished = "2vi89elxqk9"
)

// Entry is a single code/label pair.
type Entry struct {
	Code  string
	Label string
}

// Dictionary is a bidirectional mapping between provider codes and human labels.
// Both directions are built once in New and never change afterwards.
type Dictionary struct {
	name    string
	entries []Entry
	labels  map[string]string
	codes   map[string]string
}

var (
	Gender = New("gender",
		Entry{Code: GenderMale, Label: "мужчина"},
		Entry{Code: GenderFemale, Label: "женщина"},
	)

	Category = New("category",
		Entry{Code: CategoryWarehouse, Label: "Склад"},
		Entry{Code: CategoryProduction, Label: "Производство"},
	)

	Rate = New("rate",
		Entry{Code: RatePiecework, Label: "Выработка"},
		Entry{Code: RateFixed, Label: "Фикс"},
	)

	Nationality = New("nationality",
		Entry{Code: "gcqez27y5f4", Label: "РФ"},
		Entry{Code: "34ttqq61lvg", Label: "Узбекистан"},
		Entry{Code: "gk7e2465a07", Label: "Белоруссия"},
		Entry{Code: "kl361vufv57", Label: "Таджикистан"},
		Entry{Code: "sc291qbzdg3", Label: "Молдова"},
		Entry{Code: "ntk2lrx6fex", Label: "Армения"},
		Entry{Code: "111501hylor", Label: "Азербайджан"},
		Entry{Code: "mng5b3rqyq0", Label: "Дагестан | Ингушетия | Кабардино-Балкария " +
			"| Карачаево-Черкессия | Чечня | Адыгея | Алания " +
			"| Кавказский федеральный округ | Абхазия | Осетия"},
	)
)

// New builds a dictionary from the given entries. Later duplicates of a code or
// label are ignored.
func New(name string, entries ...Entry) *Dictionary {
	d := &Dictionary{
		name:   name,
		labels: make(map[string]string, len(entries)),
		codes:  make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		if _, ok := d.labels[e.Code]; ok {
			continue
		}
		key := normalize(e.Label)
		if _, ok := d.codes[key]; ok {
			continue
		}
		d.labels[e.Code] = e.Label
		d.codes[key] = e.Code
		d.entries = append(d.entries, e)
	}

	return d
}

func (d *Dictionary) Name() string {
	return d.name
}

// Label returns the human label for the code, or the code itself when unknown.
func (d *Dictionary) Label(code string) string {
	if label, ok := d.labels[code]; ok {
		return label
	}
	return code
}

// Labels maps every code through Label keeping the order.
func (d *Dictionary) Labels(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, d.Label(code))
	}
	return out
}

// Code resolves a label back to its code. Matching ignores case and
// surrounding whitespace. Unknown labels yield false.
func (d *Dictionary) Code(label string) (string, bool) {
	key := normalize(label)
	if key == "" {
		return "", false
	}
	code, ok := d.codes[key]
	return code, ok
}

// Entries returns the pairs in declaration order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
