package adb

// Response is the value produced by a single host-protocol request: three
// fields exactly as specified — IOOk is false when the underlying stream
// failed before a status token arrived, Okay is true iff the four status
// bytes equaled ASCII "OKAY", and Message is empty on success or carries
// the diagnostic on failure.
type Response struct {
	IOOk    bool
	Okay    bool
	Message string
}

func okResponse() Response { return Response{IOOk: true, Okay: true} }

func failResponse(msg string) Response { return Response{IOOk: true, Okay: false, Message: msg} }
