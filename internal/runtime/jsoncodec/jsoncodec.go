package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

// Snapshots are compared byte-for-byte by tooling, so map keys are sorted and
// HTML escaping stays off.
var snapshotConfig = sonic.Config{
	SortMapKeys:             true,
	EscapeHTML:              false,
	CompactMarshaler:        true,
	ValidateString:          true,
	NoValidateJSONMarshaler: false,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return snapshotConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return snapshotConfig.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return snapshotConfig.Unmarshal(data, v)
}

// Encode writes v followed by a newline.
func Encode(w io.Writer, v any) error {
	return snapshotConfig.NewEncoder(w).Encode(v)
}
