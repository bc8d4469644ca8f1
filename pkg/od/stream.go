package od

import "sync"

// Stream is the mutable cursor over one open sub-entry access. DataOffset
// tracks progress through a segmented transfer; a fresh Stream always
// starts at offset 0 (Restart resets it back there).
type Stream struct {
	mu         *sync.RWMutex
	Data       []byte
	DataOffset uint32
	DataLength uint32
	Object     any
	Attribute  uint8
	Subindex   uint8
}

// StreamReader copies up to len(read) bytes starting at stream.DataOffset
// into read, reports how many bytes it actually wrote via countRead, and
// returns ErrPartial if more data remains after this call.
type StreamReader func(stream *Stream, read []byte, countRead *uint16) error

// StreamWriter consumes up to len(toWrite) bytes starting at
// stream.DataOffset. It returns ErrDataLong if toWrite does not fit in the
// remaining space.
type StreamWriter func(stream *Stream, toWrite []byte, countWritten *uint16) error

// Streamer pairs a Stream with the reader/writer that should service it:
// the catalog default byte-copy, or an installed Extension's functions.
type Streamer struct {
	stream Stream
	read   StreamReader
	write  StreamWriter
}

// NewStreamer opens a Streamer over (index, subIndex). If origin is true,
// or no Extension is installed there, the default byte-copy reader/writer
// is used; otherwise the installed Extension's functions service the
// stream, with stream.Object set to the Extension's Object.
func NewStreamer(cat *Catalog, entry *Entry, subIndex uint8, origin bool) (*Streamer, ODR) {
	sub, odr := entry.GetSub(subIndex)
	if odr != ErrNo {
		return nil, odr
	}

	stream := Stream{
		mu:         &sub.mu,
		Data:       sub.data,
		DataLength: uint32(len(sub.data)),
		Attribute:  sub.Attribute,
		Subindex:   subIndex,
	}

	ext := cat.Registry.lookup(entry.Index, subIndex)
	if origin || ext == nil {
		return &Streamer{stream: stream, read: ReadEntryDefault, write: WriteEntryDefault}, ErrNo
	}

	stream.Object = ext.Object
	reader := ext.Read
	if reader == nil {
		reader = ReadEntryDisabled
	}
	writer := ext.Write
	if writer == nil {
		writer = WriteEntryDisabled
	}
	return &Streamer{stream: stream, read: reader, write: writer}, ErrNo
}

// Read delegates to the configured StreamReader. Unlike io.Reader, a nil
// error means the value is fully read; ErrPartial means more remains.
func (s *Streamer) Read(p []byte) (int, error) {
	var n uint16
	err := s.read(&s.stream, p, &n)
	if err == nil || err == ErrNo {
		return int(n), nil
	}
	return int(n), err
}

// Write delegates to the configured StreamWriter. A nil error means the
// value was fully written; ErrPartial means more segments are expected.
func (s *Streamer) Write(p []byte) (int, error) {
	var n uint16
	err := s.write(&s.stream, p, &n)
	if err == nil || err == ErrNo {
		return int(n), nil
	}
	return int(n), err
}

// Restart rewinds the stream's segmented-transfer cursor back to the start.
func (s *Streamer) Restart() {
	s.stream.DataOffset = 0
}

// DataLength reports the full size of the underlying value.
func (s *Streamer) DataLength() uint32 {
	return s.stream.DataLength
}

// ReadEntryDefault is the catalog's default segmented reader: a plain
// byte-copy from stream.Data at the current offset.
func ReadEntryDefault(stream *Stream, read []byte, countRead *uint16) error {
	stream.mu.RLock()
	defer stream.mu.RUnlock()

	remaining := stream.DataLength - stream.DataOffset
	count := uint32(len(read))
	if count > remaining {
		count = remaining
	}
	copy(read, stream.Data[stream.DataOffset:stream.DataOffset+count])
	*countRead = uint16(count)

	if count < remaining {
		stream.DataOffset += count
		return ErrPartial
	}
	stream.DataOffset = 0
	return nil
}

// WriteEntryDefault is the catalog's default segmented writer: a plain
// byte-copy into stream.Data at the current offset. It never grows Data;
// writing past DataLength is ErrDataLong.
func WriteEntryDefault(stream *Stream, toWrite []byte, countWritten *uint16) error {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	remaining := stream.DataLength - stream.DataOffset
	count := uint32(len(toWrite))
	if count > remaining {
		*countWritten = uint16(remaining)
		stream.DataOffset = 0
		return ErrDataLong
	}
	copy(stream.Data[stream.DataOffset:stream.DataOffset+count], toWrite)
	*countWritten = uint16(count)

	if count < remaining {
		stream.DataOffset += count
		return ErrPartial
	}
	stream.DataOffset = 0
	return nil
}

func ReadEntryDisabled(stream *Stream, read []byte, countRead *uint16) error {
	*countRead = 0
	return ErrUnsuppAccess
}

func WriteEntryDisabled(stream *Stream, toWrite []byte, countWritten *uint16) error {
	*countWritten = 0
	return ErrUnsuppAccess
}
