package syncproto

import (
	"encoding/binary"

	"github.com/rjboer/goadb/internal/adberr"
)

// DirEntry is one entry from a LIST "<path>" response: DENT + four u32
// fields (mode, size, mtime, name length) + the name bytes.
type DirEntry struct {
	Name  string
	Mode  uint32
	Size  uint32
	Mtime uint32
}

// DoList writes LIST "<path>" and reads the DENT stream terminated by
// DONE, returning every entry in wire order.
func DoList(c Conn, path string) ([]DirEntry, error) {
	if err := WritePath(c, TagList, path); err != nil {
		return nil, err
	}
	var entries []DirEntry
	for {
		tag, length, err := ReadHeader(c)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagDone:
			if length > 0 {
				if _, err := c.ReadFull(make([]byte, length)); err != nil {
					return nil, err
				}
			}
			return entries, nil
		case TagDent:
			fields := make([]byte, 16)
			if _, err := c.ReadFull(fields); err != nil {
				return nil, err
			}
			mode := binary.LittleEndian.Uint32(fields[0:4])
			size := binary.LittleEndian.Uint32(fields[4:8])
			mtime := binary.LittleEndian.Uint32(fields[8:12])
			nameLen := binary.LittleEndian.Uint32(fields[12:16])
			name, err := ReadSyncString(c, nameLen)
			if err != nil {
				return nil, err
			}
			entries = append(entries, DirEntry{Name: name, Mode: mode, Size: size, Mtime: mtime})
		case TagFail:
			msg, err := ReadSyncString(c, length)
			if err != nil {
				return nil, err
			}
			return nil, &adberr.AdbFail{Message: msg}
		default:
			return nil, adberr.Protocol("unexpected tag %q in LIST response", tag)
		}
	}
}
