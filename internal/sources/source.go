package sources

import "fmt"

// Source fetches one raw proxy list as plain text. Parsing is the
// Ingestor's job; a source only moves bytes.
type Source interface {
	Fetch(params map[string]interface{}) (string, error)
}

type Factory func() Source

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Source, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("source plugin '%s' not found", name)
	}
	return factory(), nil
}
