package syncproto

import "io"

// Pull drives the RECV side: write RECV "<path>", then repeatedly read a
// DATA/DONE frame, appending DATA payloads to dst until DONE. total is the
// expected file size for progress reporting; pass 0 if the caller didn't
// pre-STAT the file (Progress.Percent() then reports 0 throughout, per
// spec §4.3).
func Pull(c Conn, path string, total int64, dst io.Writer, progress ProgressFunc) error {
	if err := WritePath(c, TagRecv, path); err != nil {
		return err
	}

	var received int64
	for {
		payload, done, err := ReadDataOrDone(c)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if _, werr := dst.Write(payload); werr != nil {
			return werr
		}
		received += int64(len(payload))
		report(progress, received, total)
	}
}
