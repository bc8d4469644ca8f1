package od

import "encoding/binary"

// GetSub opens a Streamer over (index, subIndex), looking index up in cat
// first. origin=true bypasses any installed extension and reads/writes the
// backing bytes directly.
func GetSub(cat *Catalog, index uint16, subIndex uint8, origin bool) (*Streamer, ODR) {
	entry, ok := cat.Find(index)
	if !ok {
		return nil, ErrIdxNotExist
	}
	return NewStreamer(cat, entry, subIndex, origin)
}

// ReadExactly reads the entirety of a sub-entry's value in one call. The
// caller's buffer must be sized exactly to the sub-entry's data length;
// the GetUintN helpers below rely on this instead of looping over ErrPartial, so
// a caller that sizes its buffer wrong sees ErrTypeMismatch, not a silent
// short read (mirrors the teacher's get_value: no internal segmentation).
func ReadExactly(streamer *Streamer, buf []byte) ODR {
	if uint32(len(buf)) != streamer.DataLength() {
		return ErrTypeMismatch
	}
	var n uint16
	err := streamer.read(&streamer.stream, buf, &n)
	if err != nil && err != ErrNo {
		if err == ErrPartial {
			return ErrTypeMismatch
		}
		return err.(ODR)
	}
	if int(n) != len(buf) {
		return ErrTypeMismatch
	}
	return ErrNo
}

// WriteExactly writes the entirety of a sub-entry's value in one call,
// requiring buf to match the sub-entry's data length exactly.
func WriteExactly(streamer *Streamer, buf []byte) ODR {
	if uint32(len(buf)) != streamer.DataLength() {
		return ErrTypeMismatch
	}
	var n uint16
	err := streamer.write(&streamer.stream, buf, &n)
	if err != nil {
		if odr, ok := err.(ODR); ok {
			return odr
		}
		return ErrGeneral
	}
	if int(n) != len(buf) {
		return ErrTypeMismatch
	}
	return ErrNo
}

// GetPtr returns the live backing slice for (index, subIndex) without
// copying. The caller must treat it as read-only unless it also holds the
// corresponding Sub's lock; it exists for zero-copy extension functions
// that need direct access, grounded on the teacher's Entry.GetPtr.
func GetPtr(cat *Catalog, index uint16, subIndex uint8) ([]byte, ODR) {
	entry, ok := cat.Find(index)
	if !ok {
		return nil, ErrIdxNotExist
	}
	sub, odr := entry.GetSub(subIndex)
	if odr != ErrNo {
		return nil, odr
	}
	return sub.data, ErrNo
}

func GetUint8(cat *Catalog, index uint16, subIndex uint8) (uint8, ODR) {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return 0, odr
	}
	buf := make([]byte, 1)
	if odr := ReadExactly(streamer, buf); odr != ErrNo {
		return 0, odr
	}
	return buf[0], ErrNo
}

func GetUint16(cat *Catalog, index uint16, subIndex uint8) (uint16, ODR) {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return 0, odr
	}
	buf := make([]byte, 2)
	if odr := ReadExactly(streamer, buf); odr != ErrNo {
		return 0, odr
	}
	return binary.LittleEndian.Uint16(buf), ErrNo
}

func GetUint32(cat *Catalog, index uint16, subIndex uint8) (uint32, ODR) {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return 0, odr
	}
	buf := make([]byte, 4)
	if odr := ReadExactly(streamer, buf); odr != ErrNo {
		return 0, odr
	}
	return binary.LittleEndian.Uint32(buf), ErrNo
}

func GetUint64(cat *Catalog, index uint16, subIndex uint8) (uint64, ODR) {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return 0, odr
	}
	buf := make([]byte, 8)
	if odr := ReadExactly(streamer, buf); odr != ErrNo {
		return 0, odr
	}
	return binary.LittleEndian.Uint64(buf), ErrNo
}

func SetUint8(cat *Catalog, index uint16, subIndex uint8, value uint8) ODR {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return odr
	}
	return WriteExactly(streamer, []byte{value})
}

func SetUint16(cat *Catalog, index uint16, subIndex uint8, value uint16) ODR {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return odr
	}
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, value)
	return WriteExactly(streamer, buf)
}

func SetUint32(cat *Catalog, index uint16, subIndex uint8, value uint32) ODR {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return odr
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	return WriteExactly(streamer, buf)
}

func SetUint64(cat *Catalog, index uint16, subIndex uint8, value uint64) ODR {
	streamer, odr := GetSub(cat, index, subIndex, false)
	if odr != ErrNo {
		return odr
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return WriteExactly(streamer, buf)
}
