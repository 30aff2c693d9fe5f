package syncproto

import (
	"encoding/binary"

	"github.com/rjboer/goadb/internal/adberr"
)

// Stat is the parsed result of a STAT "<path>" request: mode, size and
// mtime as returned by the daemon's STAT response.
type Stat struct {
	Mode  uint32
	Size  uint32
	Mtime uint32
}

// DoStat writes STAT "<path>" and reads back the STAT response: the tag
// followed by three little-endian u32 fields.
func DoStat(c Conn, path string) (Stat, error) {
	if err := WritePath(c, TagStat, path); err != nil {
		return Stat{}, err
	}
	tag, length, err := ReadHeader(c)
	if err != nil {
		return Stat{}, err
	}
	if tag == TagFail {
		msg, err := ReadSyncString(c, length)
		if err != nil {
			return Stat{}, err
		}
		return Stat{}, &adberr.AdbFail{Message: msg}
	}
	if tag != TagStat {
		return Stat{}, adberr.Protocol("unexpected tag %q in STAT response", tag)
	}
	buf := make([]byte, 12)
	if _, err := c.ReadFull(buf); err != nil {
		return Stat{}, err
	}
	return Stat{
		Mode:  binary.LittleEndian.Uint32(buf[0:4]),
		Size:  binary.LittleEndian.Uint32(buf[4:8]),
		Mtime: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}
