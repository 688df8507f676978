package homee

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingField is returned when a decoded entity lacks a required field.
var ErrMissingField = errors.New("missing field")

// Node represents a device paired with the hub
type Node struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
}

// Homeegram represents a user defined automation
type Homeegram struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active int    `json:"active"`
	State  int    `json:"state"`
}

// UnmarshalJSON decodes a node and fails if any field is absent.
func (n *Node) UnmarshalJSON(data []byte) error {
	fields, err := requireFields(data, "id", "name", "available")
	if err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if err := json.Unmarshal(fields["id"], &n.ID); err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	if err := json.Unmarshal(fields["name"], &n.Name); err != nil {
		return fmt.Errorf("node name: %w", err)
	}
	if err := json.Unmarshal(fields["available"], &n.Available); err != nil {
		return fmt.Errorf("node available: %w", err)
	}
	return nil
}

// UnmarshalJSON decodes a homeegram and fails if any field is absent.
func (h *Homeegram) UnmarshalJSON(data []byte) error {
	fields, err := requireFields(data, "id", "name", "active", "state")
	if err != nil {
		return fmt.Errorf("homeegram: %w", err)
	}
	if err := json.Unmarshal(fields["id"], &h.ID); err != nil {
		return fmt.Errorf("homeegram id: %w", err)
	}
	if err := json.Unmarshal(fields["name"], &h.Name); err != nil {
		return fmt.Errorf("homeegram name: %w", err)
	}
	if err := json.Unmarshal(fields["active"], &h.Active); err != nil {
		return fmt.Errorf("homeegram active: %w", err)
	}
	if err := json.Unmarshal(fields["state"], &h.State); err != nil {
		return fmt.Errorf("homeegram state: %w", err)
	}
	return nil
}

func requireFields(data []byte, names ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingField, name)
		}
	}
	return fields, nil
}

// DecodeNodes decodes raw node objects as held in a Snapshot.
func DecodeNodes(raw []json.RawMessage) ([]Node, error) {
	return decodeAll[Node](raw)
}

// DecodeHomeegrams decodes raw homeegram objects as held in a Snapshot.
func DecodeHomeegrams(raw []json.RawMessage) ([]Homeegram, error) {
	return decodeAll[Homeegram](raw)
}

func decodeAll[T any](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeFrame parses a frame into its top-level members. Only JSON objects
// are frames.
func decodeFrame(frame []byte) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(frame, &members); err != nil {
		return nil, err
	}
	if members == nil {
		return nil, errors.New("frame is not an object")
	}
	return members, nil
}

// decodeList decodes the list stored under key in a reply frame. A missing
// key yields an empty list.
func decodeList[T any](frame []byte, key string) ([]T, error) {
	members, err := decodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	raw, ok := members[key]
	if !ok {
		return []T{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	out, err := decodeAll[T](items)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
