package badgerstore

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// errBadSize marks a size record that is not 8 bytes long.
var errBadSize = errors.New("malformed object size record")

// Key namespace:
//
//	"h:" <object>                    object size (uint64, big endian)
//	"c:" <object> 0x00 <index>       data chunk <index> (uint64, big endian)
//	"x:" <object> 0x00 <key>         extended attribute
//	"o:" <object> 0x00 <key>         omap value
//
// The size record doubles as the existence marker for an object.
const (
	prefixHeader = "h:"
	prefixChunk  = "c:"
	prefixXattr  = "x:"
	prefixOmap   = "o:"
)

func keyHeader(object string) []byte {
	return []byte(prefixHeader + object)
}

func keyChunk(object string, index uint64) []byte {
	k := make([]byte, 0, len(prefixChunk)+len(object)+1+8)
	k = append(k, prefixChunk...)
	k = append(k, object...)
	k = append(k, 0)
	return binary.BigEndian.AppendUint64(k, index)
}

func keyXattr(object, name string) []byte {
	return []byte(prefixXattr + object + "\x00" + name)
}

func keyOmap(object, name string) []byte {
	return []byte(prefixOmap + object + "\x00" + name)
}

func encodeSize(size uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, size)
}

func decodeSize(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.Wrapf(errBadSize, "%d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
