package video

import (
	"bufio"
	"bytes"
	"io"
)

const maxFrameSize = 8 << 20

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// scanJPEG splits a concatenated MJPEG stream into individual JPEG images.
// Bytes outside SOI..EOI are discarded.
func scanJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF || len(data) == 0 {
			return len(data), nil, nil
		}
		// keep a trailing 0xFF that may begin the next marker
		return len(data) - 1, nil, nil
	}

	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	stop := start + len(jpegSOI) + end + len(jpegEOI)
	return stop, data[start:stop], nil
}

// splitFrames reads r until EOF or error, calling emit with a private copy
// of each frame.
func splitFrames(r io.Reader, emit func([]byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256<<10), maxFrameSize)
	scanner.Split(scanJPEG)
	for scanner.Scan() {
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		emit(frame)
	}
	return scanner.Err()
}
