package caster

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// ChannelCaster converts values to and from the string payloads carried by
// the pubsub topics.
type ChannelCaster[T any] interface {
	From(string) (T, error)
	To(T) (string, error)
}

type JSONChannelCaster[T any] struct{}

func (jc JSONChannelCaster[T]) From(data string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(data), &v)
	return v, err
}

func (jc JSONChannelCaster[T]) To(v T) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

// MsgpackChannelCaster produces binary payloads. NaN values survive the
// round trip, unlike with JSON.
type MsgpackChannelCaster[T any] struct{}

func (mc MsgpackChannelCaster[T]) From(data string) (T, error) {
	var v T
	err := msgpack.Unmarshal([]byte(data), &v)
	return v, err
}

func (mc MsgpackChannelCaster[T]) To(v T) (string, error) {
	data, err := msgpack.Marshal(v)
	return string(data), err
}
