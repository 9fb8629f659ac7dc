package pusher

import "fmt"

type Topic string

const (
	Limit      Topic = "limit"
	Connection Topic = "connection"
)

type Message struct {
	Topic    Topic
	Key      string
	Payload  []byte
	Retained bool
}

// path is prefix/topic, followed by the key when there is one
func (m Message) path(prefix string) string {
	if m.Key == "" {
		return fmt.Sprintf("%s/%s", prefix, m.Topic)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, m.Topic, m.Key)
}
