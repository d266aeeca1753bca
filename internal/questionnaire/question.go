package questionnaire

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedQuestions is returned for a question set the engine cannot use.
var ErrMalformedQuestions = errors.New("malformed question set")

// Question is one screening question. The order of a loaded set is the order
// questions are asked in.
type Question struct {
	Key      string `yaml:"key" json:"key"`
	Text     string `yaml:"question" json:"question"`
	Criteria string `yaml:"acceptance" json:"acceptance,omitempty"`
}

// LoadQuestions reads a question set from a YAML or JSON file.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions %s: %w", path, err)
	}

	questions, err := ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("questions %s: %w", path, err)
	}
	return questions, nil
}

// ParseQuestions accepts a list of questions, a {"questions": [...]} wrapper,
// or a mapping of key to question whose order is kept. A list entry may also
// be a bare string holding just the question text. Missing keys default to
// the zero-based position.
func ParseQuestions(data []byte) ([]Question, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuestions, err)
	}
	if len(doc.Content) == 0 {
		return []Question{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		if wrapped := mappingValue(root, "questions"); wrapped != nil {
			root = wrapped
		}
	}

	var questions []Question
	switch root.Kind {
	case yaml.SequenceNode:
		for i, item := range root.Content {
			q, err := decodeQuestion(item)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedQuestions, i, err)
			}
			questions = append(questions, q)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i].Value
			q, err := decodeQuestion(root.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("%w: entry %q: %v", ErrMalformedQuestions, key, err)
			}
			if q.Key == "" {
				q.Key = key
			}
			questions = append(questions, q)
		}
	default:
		return nil, fmt.Errorf("%w: expected a list or a mapping of questions", ErrMalformedQuestions)
	}

	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		if questions[i].Key == "" {
			questions[i].Key = strconv.Itoa(i)
		}
		if _, ok := seen[questions[i].Key]; ok {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformedQuestions, questions[i].Key)
		}
		seen[questions[i].Key] = struct{}{}
	}

	if questions == nil {
		questions = []Question{}
	}
	return questions, nil
}

func decodeQuestion(node *yaml.Node) (Question, error) {
	var q Question
	switch node.Kind {
	case yaml.ScalarNode:
		q.Text = node.Value
	case yaml.MappingNode:
		if err := node.Decode(&q); err != nil {
			return q, err
		}
	default:
		return q, errors.New("unsupported entry")
	}

	q.Key = strings.TrimSpace(q.Key)
	q.Text = strings.TrimSpace(q.Text)
	q.Criteria = strings.TrimSpace(q.Criteria)
	if q.Text == "" {
		return q, errors.New("question text is empty")
	}
	return q, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
