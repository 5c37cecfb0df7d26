package publishers

import "fmt"

// Publisher hands a rendered config document to its destination. The
// core never performs output I/O itself; publishers are the boundary.
type Publisher interface {
	Publish(payload string, params map[string]interface{}) error
}

type Factory func() Publisher

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Publisher, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("publisher plugin '%s' not found", name)
	}
	return factory(), nil
}
