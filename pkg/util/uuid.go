package util

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

// contentNamespace scopes content IDs so they never collide with other
// name-based UUIDs of the same bytes.
var contentNamespace = uuid.NewMD5(uuid.NameSpaceURL, []byte("https://github.com/jpfielding/sqp.go/content"))

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ContentID returns a version 3 UUID naming a raster by its format,
// dimensions and pixels.
func ContentID(format string, width, height int, pix []byte) string {
	name := make([]byte, 0, len(format)+9+len(pix))
	name = append(name, format...)
	name = append(name, 0)
	name = binary.BigEndian.AppendUint32(name, uint32(width))
	name = binary.BigEndian.AppendUint32(name, uint32(height))
	name = append(name, pix...)
	return uuid.NewMD5(contentNamespace, name).String()
}
