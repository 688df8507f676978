package homee

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync/atomic"
)

// Snapshot is the hub state last pushed over the connection. Each field holds
// the raw JSON received under the matching frame key. A Snapshot is never
// modified after it has been published.
type Snapshot struct {
	Nodes      []json.RawMessage
	Attributes []json.RawMessage
	Groups     []json.RawMessage
	Homeegrams []json.RawMessage
	User       json.RawMessage
}

// store publishes snapshots by swapping an immutable value, so a reader
// sees either the state before a frame or the state after it.
type store struct {
	current atomic.Pointer[Snapshot]
}

func newStore() *store {
	s := &store{}
	s.current.Store(&Snapshot{
		Nodes:      []json.RawMessage{},
		Attributes: []json.RawMessage{},
		Groups:     []json.RawMessage{},
		Homeegrams: []json.RawMessage{},
	})
	return s
}

func (s *store) load() *Snapshot {
	return s.current.Load()
}

// apply replaces every collection present in the frame and returns the keys
// it replaced. Only the receive loop writes, so load and store do not race
// with each other.
func (s *store) apply(frame []byte) ([]string, []error, error) {
	members, err := decodeFrame(frame)
	if err != nil {
		return nil, nil, err
	}

	old := s.load()
	next := *old
	var replaced []string
	var skipped []error

	lists := []struct {
		key string
		dst *[]json.RawMessage
	}{
		{KeyNodes, &next.Nodes},
		{KeyAttributes, &next.Attributes},
		{KeyGroups, &next.Groups},
		{KeyHomeegrams, &next.Homeegrams},
	}
	for _, l := range lists {
		raw, ok := members[l.key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", l.key, err))
			continue
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		*l.dst = items
		replaced = append(replaced, l.key)
	}

	if raw, ok := members[KeyUser]; ok {
		next.User = slices.Clone(raw)
		replaced = append(replaced, KeyUser)
	}

	if len(replaced) > 0 {
		s.current.Store(&next)
	}
	return replaced, skipped, nil
}
