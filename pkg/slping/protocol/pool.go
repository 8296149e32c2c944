package protocol

import (
	"bytes"
	"sync"
)

// bufferPool holds the buffers packets are assembled in before they are
// written in a single call.
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}
