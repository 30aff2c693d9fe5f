package syncproto

import (
	"encoding/binary"
	"io"

	"github.com/rjboer/goadb/internal/adberr"
)

// Push drives the PUSH side of the chunked DATA write state machine:
// SEND "<path>,<mode>", then DATA frames of at most MaxChunk bytes each,
// then DONE <mtimeSeconds>. It reads the terminal status and returns nil
// on OKAY or an *adberr.AdbFail on FAIL.
//
// src is read to EOF; size is the total byte count used for progress
// reporting (total is known in advance for PUSH, unlike PULL).
func Push(c Conn, path string, mode uint32, mtimeSeconds uint32, size int64, src io.Reader, progress ProgressFunc) error {
	state := StateIdle

	if err := WritePathMode(c, TagSend, path, mode); err != nil {
		return err
	}
	state = StateSending

	var sent int64
	buf := make([]byte, MaxChunk)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if werr := WriteRequest(c, TagData, buf[:n]); werr != nil {
				return werr
			}
			sent += int64(n)
			report(progress, sent, size)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			state = StateError
			return err
		}
	}
	if state != StateSending {
		return adberr.Protocol("push: unexpected state %v before DONE", state)
	}

	doneFrame := make([]byte, 8)
	copy(doneFrame[0:4], TagDone[:])
	binary.LittleEndian.PutUint32(doneFrame[4:8], mtimeSeconds)
	if n, err := c.Send(doneFrame); err != nil {
		return err
	} else if n != len(doneFrame) {
		return adberr.ErrEOF
	}
	state = StateAwaitAck

	if err := ReadStatus(c); err != nil {
		state = StateError
		return err
	}
	state = StateDone
	return nil
}
