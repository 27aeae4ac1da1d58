// Package codec centralizes snapshot manifest encoding.
//
// Snapshot files are self-describing: the manifest records the name of
// the codec that encoded it, and loaders select the codec by that name.
// Changing codecs is therefore a compatibility boundary only for files
// written by codecs that are later removed.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
