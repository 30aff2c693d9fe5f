// Package syncproto implements the ADB sync subprotocol (C3): the binary,
// little-endian-length-prefixed file-transfer codec that runs over a
// framing socket once it has entered sync mode.
//
// Grounded on the chunked binary-buffer request/response shape used by the
// teacher's connectionmgr binary streaming code, adapted from IIO buffer
// transfer semantics to ADB's SEND/RECV/STAT/LIST file protocol.
package syncproto

import (
	"encoding/binary"
	"strconv"

	"github.com/rjboer/goadb/internal/adberr"
)

// Tag is a 4-byte ASCII sync command tag.
type Tag [4]byte

func (t Tag) String() string { return string(t[:]) }

// Recognized tags. Only the subset a given operation needs round-trips;
// ReadHeader returns any other 4 bytes as a raw Tag, which the readers
// then report as a protocol error.
var (
	TagSend  = Tag{'S', 'E', 'N', 'D'}
	TagSend2 = Tag{'S', 'N', 'D', '2'}
	TagRecv  = Tag{'R', 'E', 'C', 'V'}
	TagRecv2 = Tag{'R', 'C', 'V', '2'}
	TagStat  = Tag{'S', 'T', 'A', 'T'}
	TagSta2  = Tag{'S', 'T', 'A', '2'}
	TagList  = Tag{'L', 'I', 'S', 'T'}
	TagLis2  = Tag{'L', 'I', 'S', '2'}
	TagDent  = Tag{'D', 'E', 'N', 'T'}
	TagDnt2  = Tag{'D', 'N', 'T', '2'}
	TagData  = Tag{'D', 'A', 'T', 'A'}
	TagDone  = Tag{'D', 'O', 'N', 'E'}
	TagOkay  = Tag{'O', 'K', 'A', 'Y'}
	TagFail  = Tag{'F', 'A', 'I', 'L'}
	TagQuit  = Tag{'Q', 'U', 'I', 'T'}
)

// MaxChunk is the maximum payload size of a single DATA frame.
const MaxChunk = 64 * 1024

// reader/writer abstracts the transport so the codec can be driven by
// either a real connection or an in-memory fake in tests.
type reader interface {
	ReadFull(buf []byte) (int, error)
}

type writer interface {
	Send(buf []byte) (int, error)
}

// Conn is the minimal surface the sync codec needs from the underlying
// socket: everything internal/transport.Endpoint already provides.
type Conn interface {
	reader
	writer
}

// WriteRequest writes the request envelope: the 4-byte tag, the
// little-endian u32 payload length, then the payload bytes.
func WriteRequest(c Conn, tag Tag, payload []byte) error {
	frame := make([]byte, 8+len(payload))
	copy(frame[0:4], tag[:])
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[8:], payload)
	n, err := c.Send(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return adberr.ErrEOF
	}
	return nil
}

// WritePathMode writes the SEND/SEND2 request whose payload is
// "<path>,<mode>" with mode formatted as ASCII decimal, independent of
// locale (spec §9 open question: force invariant formatting).
func WritePathMode(c Conn, tag Tag, path string, mode uint32) error {
	payload := path + "," + strconv.FormatUint(uint64(mode), 10)
	return WriteRequest(c, tag, []byte(payload))
}

// WritePath writes a request whose payload is a bare path (RECV, STAT,
// LIST).
func WritePath(c Conn, tag Tag, path string) error {
	return WriteRequest(c, tag, []byte(path))
}

// ReadHeader reads a 4-byte tag followed by a little-endian u32 length.
func ReadHeader(c Conn) (Tag, uint32, error) {
	hdr := make([]byte, 8)
	n, err := c.ReadFull(hdr)
	if err != nil {
		return Tag{}, 0, err
	}
	if n < 8 {
		return Tag{}, 0, adberr.ErrEOF
	}
	var tag Tag
	copy(tag[:], hdr[0:4])
	length := binary.LittleEndian.Uint32(hdr[4:8])
	return tag, length, nil
}

// ReadSyncString reads a raw little-endian-length-prefixed UTF-8 string
// (read_sync_string): 4 bytes tag already consumed by the caller via
// ReadHeader; this reads exactly length bytes.
func ReadSyncString(c Conn, length uint32) (string, error) {
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := c.ReadFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadDataOrDone reads one DATA or DONE frame in the chunked-read state
// machine, returning the payload (nil for DONE) and whether DONE was seen.
func ReadDataOrDone(c Conn) (payload []byte, done bool, err error) {
	tag, length, err := ReadHeader(c)
	if err != nil {
		return nil, false, err
	}
	switch tag {
	case TagData:
		buf := make([]byte, length)
		if _, err := c.ReadFull(buf); err != nil {
			return nil, false, err
		}
		return buf, false, nil
	case TagDone:
		return nil, true, nil
	case TagFail:
		msg, err := ReadSyncString(c, length)
		if err != nil {
			return nil, false, err
		}
		return nil, false, &adberr.AdbFail{Message: msg}
	default:
		return nil, false, adberr.Protocol("unexpected tag %q in chunked read", tag)
	}
}

// ReadStatus reads a terminal OKAY/FAIL status frame, as produced after a
// SEND's trailing DONE.
func ReadStatus(c Conn) error {
	tag, length, err := ReadHeader(c)
	if err != nil {
		return err
	}
	switch tag {
	case TagOkay:
		if length != 0 {
			// A non-zero length on OKAY is tolerated: that many bytes are
			// read and discarded.
			if _, err := c.ReadFull(make([]byte, length)); err != nil {
				return err
			}
		}
		return nil
	case TagFail:
		msg, err := ReadSyncString(c, length)
		if err != nil {
			return err
		}
		return &adberr.AdbFail{Message: msg}
	default:
		return adberr.Protocol("unexpected status tag %q", tag)
	}
}

// WriteQuit writes the QUIT frame with no payload. The caller must close
// the underlying socket afterward; the daemon does not return to command
// mode on the same connection.
func WriteQuit(c Conn) error {
	return WriteRequest(c, TagQuit, nil)
}
