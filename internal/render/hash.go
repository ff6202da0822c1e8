package render

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes a texture's size and cells. Offset and Active are not
// included. Equal textures always produce equal fingerprints.
func Fingerprint(t *Texture) uint64 {
	d := xxhash.New()
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], t.size.X)
	binary.LittleEndian.PutUint32(buf[4:], t.size.Y)
	d.Write(buf[:8])
	for _, c := range t.cells {
		binary.LittleEndian.PutUint32(buf[0:], uint32(c.Ch))
		buf[4], buf[5], buf[6], buf[7] = c.Fg.R, c.Fg.G, c.Fg.B, c.Fg.A
		buf[8], buf[9], buf[10], buf[11] = c.Bg.R, c.Bg.G, c.Bg.B, c.Bg.A
		d.Write(buf[:])
	}
	return d.Sum64()
}
