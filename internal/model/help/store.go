package help

// Store exposes static help content for HTTP handlers.
type Store interface {
	Tips() []string
	Topics() []Topic
	FindTopic(key string) (Topic, bool)
}

// MemoryStore implements Store over fixed slices.
type MemoryStore struct {
	tips   []string
	topics []Topic
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied content.
func NewMemoryStore(tips []string, topics []Topic) *MemoryStore {
	return &MemoryStore{
		tips:   append([]string(nil), tips...),
		topics: append([]Topic(nil), topics...),
	}
}

// Tips returns a copy so callers cannot mutate the shared list.
func (s *MemoryStore) Tips() []string {
	return append([]string(nil), s.tips...)
}

func (s *MemoryStore) Topics() []Topic {
	out := make([]Topic, len(s.topics))
	for i, topic := range s.topics {
		topic.Steps = append([]string(nil), topic.Steps...)
		out[i] = topic
	}
	return out
}

// FindTopic looks up a topic by key.
func (s *MemoryStore) FindTopic(key string) (Topic, bool) {
	for _, topic := range s.topics {
		if topic.Key == key {
			topic.Steps = append([]string(nil), topic.Steps...)
			return topic, true
		}
	}
	return Topic{}, false
}
