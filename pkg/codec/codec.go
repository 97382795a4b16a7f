package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/democrat/pkg/democrat"
)

// Format is a wire encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgPack Format = "msgpack"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgPack}

var (
	// ErrUnknownFormat is returned for a format name or file extension that
	// is not supported.
	ErrUnknownFormat = errors.New("codec: unknown format")

	// ErrUnsupportedVersion is returned when an envelope was written by a
	// newer or unknown version of the format.
	ErrUnsupportedVersion = errors.New("codec: unsupported envelope version")

	// ErrNoSnapshot is returned by DecodeSnapshot for an envelope without a
	// snapshot.
	ErrNoSnapshot = errors.New("codec: envelope has no snapshot")
)

// ParseFormat parses a format name. Common aliases ("yml", "mpk") are
// accepted.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mpk", "mp":
		return FormatMsgPack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatForPath returns the format matching the extension of path.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Ext returns the preferred file extension, with the dot.
func (f Format) Ext() string {
	if f == FormatMsgPack {
		return ".msgpack"
	}
	return "." + string(f)
}

// Binary reports whether the encoding is not human-readable.
func (f Format) Binary() bool {
	return f == FormatMsgPack
}

// ContentType returns the MIME type used when serving the format over HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMsgPack:
		return "application/msgpack"
	default:
		return "application/json"
	}
}

// CurrentVersion is the current version of the envelope format.
// Increment when making breaking changes to the format.
const CurrentVersion = 1

// Envelope is the serialized form of a snapshot, a patch batch, or both.
type Envelope struct {
	// Version is the envelope format version.
	Version int `json:"version" yaml:"version" msgpack:"version"`

	// Store is the name of the store the data came from.
	Store string `json:"store,omitempty" yaml:"store,omitempty" msgpack:"store,omitempty"`

	// CreatedAt is when the envelope was written.
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt" msgpack:"createdAt"`

	// Snapshot is the captured tree, if any.
	Snapshot *democrat.Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty" msgpack:"snapshot,omitempty"`

	// Patches are recorded mutations, oldest first.
	Patches []democrat.Patch `json:"patches,omitempty" yaml:"patches,omitempty" msgpack:"patches,omitempty"`
}

// NewSnapshotEnvelope wraps snap, stamped with the current time.
func NewSnapshotEnvelope(store string, snap *democrat.Snapshot) *Envelope {
	return &Envelope{Store: store, CreatedAt: time.Now().UTC(), Snapshot: snap}
}

// NewPatchEnvelope wraps patches, stamped with the current time.
func NewPatchEnvelope(store string, patches []democrat.Patch) *Envelope {
	return &Envelope{Store: store, CreatedAt: time.Now().UTC(), Patches: patches}
}

// Marshal encodes env. It sets env.Version to CurrentVersion.
func Marshal(f Format, env *Envelope) ([]byte, error) {
	env.Version = CurrentVersion
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("codec: encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return nil, fmt.Errorf("codec: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("codec: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatMsgPack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetSortMapKeys(true)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(env); err != nil {
			return nil, fmt.Errorf("codec: encode msgpack: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Unmarshal decodes an envelope and checks its version.
func Unmarshal(f Format, data []byte) (*Envelope, error) {
	var env Envelope
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("codec: decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("codec: decode yaml: %w", err)
		}
	case FormatMsgPack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		dec.UseLooseInterfaceDecoding(true)
		if err := dec.Decode(&env); err != nil {
			return nil, fmt.Errorf("codec: decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if env.Version < 1 || env.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	env.CreatedAt = env.CreatedAt.UTC()
	normalizeEnvelope(&env)
	return &env, nil
}

// Convert re-encodes an envelope from one format to another.
func Convert(data []byte, from, to Format) ([]byte, error) {
	env, err := Unmarshal(from, data)
	if err != nil {
		return nil, err
	}
	return Marshal(to, env)
}

// EncodeSnapshot wraps snap in a new envelope and encodes it.
func EncodeSnapshot(f Format, store string, snap *democrat.Snapshot) ([]byte, error) {
	return Marshal(f, NewSnapshotEnvelope(store, snap))
}

// DecodeSnapshot decodes an envelope and returns its snapshot.
func DecodeSnapshot(f Format, data []byte) (*democrat.Snapshot, error) {
	env, err := Unmarshal(f, data)
	if err != nil {
		return nil, err
	}
	if env.Snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return env.Snapshot, nil
}

// EncodePatches wraps patches in a new envelope and encodes it.
func EncodePatches(f Format, store string, patches []democrat.Patch) ([]byte, error) {
	return Marshal(f, NewPatchEnvelope(store, patches))
}

// DecodePatches decodes an envelope and returns its patches.
func DecodePatches(f Format, data []byte) ([]democrat.Patch, error) {
	env, err := Unmarshal(f, data)
	if err != nil {
		return nil, err
	}
	return env.Patches, nil
}
