package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

var byteOrder = binary.LittleEndian

// writeString writes a uint16 length-prefixed UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, byteOrder, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// readString reads a uint16 length-prefixed UTF-8 string.
func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeBitmap writes a Roaring Bitmap as uint32 length + MarshalBinary bytes.
func writeBitmap(w io.Writer, bm *roaring.Bitmap) error {
	buf, err := bm.MarshalBinary()
	if err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, uint32(len(buf))); err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// readBitmap reads a Roaring Bitmap from uint32 length + binary data.
func readBitmap(r io.Reader) (*roaring.Bitmap, error) {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("roaring unmarshal: %w", err)
	}
	return bm, nil
}

// writeMemberIndex writes the userID -> dense index map.
// Format: count(uint32) + for each: userID(string) idx(uint32)
func writeMemberIndex(w io.Writer, idx map[string]uint32) error {
	if err := binary.Write(w, byteOrder, uint32(len(idx))); err != nil {
		return err
	}
	for userID, i := range idx {
		if err := writeString(w, userID); err != nil {
			return err
		}
		if err := binary.Write(w, byteOrder, i); err != nil {
			return err
		}
	}
	return nil
}

// readMemberIndex reads the userID -> dense index map.
func readMemberIndex(r io.Reader) (map[string]uint32, error) {
	var count uint32
	if err := binary.Read(r, byteOrder, &count); err != nil {
		return nil, err
	}
	idx := make(map[string]uint32, count)
	for i := uint32(0); i < count; i++ {
		userID, err := readString(r)
		if err != nil {
			return nil, err
		}
		var n uint32
		if err := binary.Read(r, byteOrder, &n); err != nil {
			return nil, err
		}
		idx[userID] = n
	}
	return idx, nil
}

// writeActivityRecord writes an ActivityRecord in binary format.
// Caller must hold ar.mu.
func writeActivityRecord(w io.Writer, ar *ActivityRecord) error {
	// lastSeen as Unix nanoseconds
	if err := binary.Write(w, byteOrder, ar.lastSeen.UnixNano()); err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, ar.nextIdx); err != nil {
		return err
	}
	if err := writeMemberIndex(w, ar.memberIdx); err != nil {
		return err
	}
	// per-day bitmaps
	if err := binary.Write(w, byteOrder, uint32(len(ar.days))); err != nil {
		return err
	}
	for day, bm := range ar.days {
		if err := binary.Write(w, byteOrder, day); err != nil {
			return err
		}
		if err := writeBitmap(w, bm); err != nil {
			return err
		}
	}
	return nil
}

// readActivityRecord reads an ActivityRecord from binary format.
func readActivityRecord(r io.Reader) (*ActivityRecord, error) {
	var nanos int64
	if err := binary.Read(r, byteOrder, &nanos); err != nil {
		return nil, err
	}
	var nextIdx uint32
	if err := binary.Read(r, byteOrder, &nextIdx); err != nil {
		return nil, err
	}

	memberIdx, err := readMemberIndex(r)
	if err != nil {
		return nil, err
	}

	var dayCount uint32
	if err := binary.Read(r, byteOrder, &dayCount); err != nil {
		return nil, err
	}
	days := make(map[int32]*roaring.Bitmap, dayCount)
	for i := uint32(0); i < dayCount; i++ {
		var day int32
		if err := binary.Read(r, byteOrder, &day); err != nil {
			return nil, err
		}
		bm, err := readBitmap(r)
		if err != nil {
			return nil, err
		}
		days[day] = bm
	}

	return &ActivityRecord{
		memberIdx: memberIdx,
		nextIdx:   nextIdx,
		days:      days,
		lastSeen:  time.Unix(0, nanos),
	}, nil
}
