// Package hydrate converts loosely typed payloads (decoded JSON objects,
// raw JSON, or already typed values) into strongly typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the payload being decoded in error messages and hooks.
type Context struct {
	Kind   string // action type or filter name
	Source string // where the payload came from, e.g. "session" or "dispatch"
}

func (c Context) String() string {
	if c.Source == "" {
		return c.Kind
	}
	return c.Source + "/" + c.Kind
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts payloads into strongly typed structs.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. A nil payload
// decodes from an empty object.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for %q: %w", ctx, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		result, err = d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for %q failed: %w", ctx, err)
		}
	} else {
		buffer, err := json.Marshal(current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: marshal payload for %q: %w", ctx, err)
		}
		if err := d.decodeJSON(buffer, &result); err != nil {
			return zero, fmt.Errorf("hydrate: decode %q: %w", ctx, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx, err)
		}
	}

	return result, nil
}

// DecodeRaw decodes a raw JSON object. Empty input decodes from an empty
// object.
func (d *Decoder[T]) DecodeRaw(ctx Context, raw []byte) (T, error) {
	var zero T
	var payload map[string]any
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return zero, fmt.Errorf("hydrate: payload for %q is not an object: %w", ctx, err)
		}
	}
	return d.Decode(ctx, payload)
}

// DecodeValue accepts a T, a *T, raw JSON bytes or any JSON-encodable value
// such as a decoded map, and returns a T.
func (d *Decoder[T]) DecodeValue(ctx Context, value any) (T, error) {
	switch v := value.(type) {
	case nil:
		return d.Decode(ctx, nil)
	case T:
		return v, d.post(ctx, &v)
	case *T:
		if v == nil {
			return d.Decode(ctx, nil)
		}
		out := *v
		return out, d.post(ctx, &out)
	case json.RawMessage:
		return d.DecodeRaw(ctx, v)
	case []byte:
		return d.DecodeRaw(ctx, v)
	case map[string]any:
		return d.Decode(ctx, v)
	default:
		buffer, err := json.Marshal(v)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("hydrate: marshal value for %q: %w", ctx, err)
		}
		return d.DecodeRaw(ctx, buffer)
	}
}

func (d *Decoder[T]) post(ctx Context, result *T) error {
	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, result); err != nil {
			return fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx, err)
		}
	}
	return nil
}

func (d *Decoder[T]) decodeJSON(buffer []byte, result *T) error {
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		if configure != nil {
			configure(decoder)
		}
	}
	return decoder.Decode(result)
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
