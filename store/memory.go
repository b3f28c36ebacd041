package store

import "sync"

// Memory keeps the document in memory.
type Memory struct {
	mu   sync.RWMutex
	text string
}

func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

func (m *Memory) DocumentText() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text, nil
}

func (m *Memory) SetDocumentText(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}
