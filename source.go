package assets

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Source is implemented by every asset source. WriteHash must feed the
// digest everything that distinguishes the source; equal sources must
// write equal bytes.
type Source interface {
	WriteHash(d *xxhash.Digest)
}

type sourceKind uint8

const (
	kindURI sourceKind = iota + 1
	kindPath
)

// SourceKey identifies raw image bytes: either a URI fetched over HTTP or a
// path read from the file system. The zero value is invalid.
type SourceKey struct {
	kind  sourceKind
	value string
}

// URI returns a key for a resource fetched over HTTP.
func URI(uri string) SourceKey {
	return SourceKey{kind: kindURI, value: uri}
}

// Path returns a key for a file read from the file system.
func Path(path string) SourceKey {
	return SourceKey{kind: kindPath, value: path}
}

// IsURI reports whether k was made by URI.
func (k SourceKey) IsURI() bool { return k.kind == kindURI }

// IsPath reports whether k was made by Path.
func (k SourceKey) IsPath() bool { return k.kind == kindPath }

// Value returns the URI or path.
func (k SourceKey) Value() string { return k.value }

// String implements fmt.Stringer.
func (k SourceKey) String() string {
	switch k.kind {
	case kindURI:
		return "uri:" + k.value
	case kindPath:
		return "path:" + k.value
	default:
		return "invalid"
	}
}

// WriteHash implements Source. The kind tag precedes the payload so a URI
// and a path with the same text hash differently.
func (k SourceKey) WriteHash(d *xxhash.Digest) {
	_, _ = d.Write([]byte{byte(k.kind)})
	_, _ = d.WriteString(k.value)
}

// hashSource returns the 64-bit cache hash of s.
func hashSource(s Source) uint64 {
	d := xxhash.New()
	s.WriteHash(d)
	return d.Sum64()
}

// writeUint64 appends v to d in a fixed byte order.
func writeUint64(d *xxhash.Digest, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, _ = d.Write(b[:])
}
