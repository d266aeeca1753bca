package questionnaire

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Company fills the greeting placeholders.
type Company struct {
	Company  string `yaml:"company" json:"company"`
	Position string `yaml:"position" json:"position"`
	HRName   string `yaml:"hr_name" json:"hr_name"`
}

// LoadGreetings reads greeting templates: a list of strings or a mapping whose
// values are the templates.
func LoadGreetings(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read greetings %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse greetings %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("greetings %s: file is empty", path)
	}

	var nodes []*yaml.Node
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		nodes = root.Content
	case yaml.MappingNode:
		for i := 1; i < len(root.Content); i += 2 {
			nodes = append(nodes, root.Content[i])
		}
	default:
		return nil, fmt.Errorf("greetings %s: expected a list or a mapping", path)
	}

	greetings := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("greetings %s: line %d: greeting must be a string", path, node.Line)
		}
		if text := strings.TrimSpace(node.Value); text != "" {
			greetings = append(greetings, text)
		}
	}
	if len(greetings) == 0 {
		return nil, fmt.Errorf("greetings %s: no greetings defined", path)
	}

	return greetings, nil
}

// LoadCompany reads company data. An empty path yields empty values.
func LoadCompany(path string) (*Company, error) {
	if strings.TrimSpace(path) == "" {
		return &Company{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company data %s: %w", path, err)
	}

	var company Company
	if err := yaml.Unmarshal(data, &company); err != nil {
		return nil, fmt.Errorf("parse company data %s: %w", path, err)
	}
	return &company, nil
}

// Greeter composes opening messages.
type Greeter struct {
	greetings []string
	company   Company
	pick      func(n int) int
}

func NewGreeter(greetings []string, company *Company) (*Greeter, error) {
	if len(greetings) == 0 {
		return nil, errors.New("at least one greeting is required")
	}
	g := &Greeter{greetings: greetings, pick: rand.IntN}
	if company != nil {
		g.company = *company
	}
	return g, nil
}

// Greeting picks a random template and substitutes {name} with the @handle
// (empty when unknown), plus {company}, {position} and {hr_name}.
func (g *Greeter) Greeting(handle string) string {
	name := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if name != "" {
		name = "@" + name
	}

	replacer := strings.NewReplacer(
		"{name}", name,
		"{company}", g.company.Company,
		"{position}", g.company.Position,
		"{hr_name}", g.company.HRName,
	)

	text := g.greetings[g.pick(len(g.greetings))]
	return strings.TrimSpace(replacer.Replace(text))
}
