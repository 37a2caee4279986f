// Package protocol implements the NUL-framed XML wire protocol spoken
// between the daemon and its clients.
package protocol

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// maximumMessageSize is the maximum message size that the framing layer will
// receive. It is somewhat arbitrary, but chosen to avoid exhausting memory on
// malformed or malicious input.
const maximumMessageSize = 25 * 1024 * 1024

// ReadMessage reads a single NUL-terminated message from the specified
// reader, returning the message body with the terminator stripped.
func ReadMessage(reader *bufio.Reader) ([]byte, error) {
	var message []byte
	for {
		chunk, err := reader.ReadSlice(0)
		message = append(message, chunk...)
		if err == nil {
			break
		} else if err == bufio.ErrBufferFull {
			if len(message) > maximumMessageSize {
				return nil, errors.New("message too large to receive")
			}
			continue
		}
		return nil, err
	}
	// Strip the terminator.
	return message[:len(message)-1], nil
}

// WriteMessage writes a message to the specified writer, appending the NUL
// terminator.
func WriteMessage(writer io.Writer, message []byte) error {
	if _, err := writer.Write(message); err != nil {
		return errors.Wrap(err, "unable to write message")
	}
	if _, err := writer.Write([]byte{0}); err != nil {
		return errors.Wrap(err, "unable to write message terminator")
	}
	return nil
}
