package state

import (
	"encoding/json"
	"fmt"
)

// Codec converts a container value to and from its persisted string form.
type Codec[V any] interface {
	Encode(v V) (string, error)
	Decode(s string) (V, error)
}

// JSONCodec persists values as JSON documents.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(data), nil
}

func (JSONCodec[V]) Decode(s string) (V, error) {
	var v V
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}
