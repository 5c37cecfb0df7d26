package stdout

import (
	"fmt"

	"bugforge/internal/publishers"
)

type Publisher struct{}

func (p *Publisher) Publish(payload string, _ map[string]interface{}) error {
	fmt.Println(payload)
	return nil
}

func init() {
	publishers.Register("stdout", func() publishers.Publisher { return &Publisher{} })
}
