package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for files whose format cannot be inferred.
var ErrUnsupportedFormat = errors.New("hydrate: unsupported format")

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Source identifies the document being decoded in hooks and errors.
type Source struct {
	Name   string
	Format Format
}

// PreHook lets callers rewrite the payload before decoding.
type PreHook func(Source, []byte) ([]byte, error)

// PostHook lets callers adjust or validate the decoded tree.
type PostHook func(Source, map[string]any) (map[string]any, error)

// CustomDecoder replaces the built-in decoding of one format.
type CustomDecoder func(Source, []byte) (map[string]any, error)

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder turns JSON, YAML or TOML documents into raw trees made of
// map[string]any, []any and scalars.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
	useNumber bool
	custom    map[Format]CustomDecoder
}

// WithPreHook applies hook to the payload prior to decoding.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook to the decoded tree.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber keeps JSON numbers as json.Number.
func WithUseNumber() DecoderOption {
	return func(d *Decoder) {
		d.useNumber = true
	}
}

// WithCustomDecoder replaces the decoding path of format.
func WithCustomDecoder(format Format, decoder CustomDecoder) DecoderOption {
	return func(d *Decoder) {
		if decoder == nil {
			return
		}
		if d.custom == nil {
			d.custom = map[Format]CustomDecoder{}
		}
		d.custom[format] = decoder
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeFile reads path and decodes it according to its extension.
func (d *Decoder) DecodeFile(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hydrate: read %q: %w", path, err)
	}
	return d.Decode(Source{Name: path, Format: format}, payload)
}

// Decode converts payload into a raw tree applying the configured hooks.
func (d *Decoder) Decode(src Source, payload []byte) (map[string]any, error) {
	var err error
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		if payload, err = hook(src, payload); err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %q failed: %w", src.Name, err)
		}
	}

	var tree map[string]any
	if custom := d.custom[src.Format]; custom != nil {
		tree, err = custom(src, payload)
		if err != nil {
			return nil, fmt.Errorf("hydrate: custom decoder for %q failed: %w", src.Name, err)
		}
	} else if tree, err = d.decode(src, payload); err != nil {
		return nil, fmt.Errorf("hydrate: decode %s %q: %w", src.Format, src.Name, err)
	}

	normalized, err := Normalize(tree)
	if err != nil {
		return nil, fmt.Errorf("hydrate: normalise %q: %w", src.Name, err)
	}
	tree, _ = normalized.(map[string]any)
	if tree == nil {
		tree = map[string]any{}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		next, err := hook(src, tree)
		if err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for %q failed: %w", src.Name, err)
		}
		if next != nil {
			tree = next
		}
	}
	return tree, nil
}

func (d *Decoder) decode(src Source, payload []byte) (map[string]any, error) {
	var tree map[string]any
	switch src.Format {
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(payload))
		if d.useNumber {
			decoder.UseNumber()
		}
		if err := decoder.Decode(&tree); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(payload, &tree); err != nil {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.Decode(string(payload), &tree); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, src.Format)
	}
	return tree, nil
}

// Normalize rewrites decoder specific shapes into the raw tree form: maps
// with non-string keys become map[string]any and typed slices become []any.
func Normalize(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			name, ok := key.(string)
			if !ok {
				name = fmt.Sprint(key)
			}
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("duplicate key %q", name)
			}
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[name] = normalized
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return value, nil
	}
}
