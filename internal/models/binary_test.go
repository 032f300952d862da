package models

import (
	"bytes"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadString(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeString(&buf, "hello"))
	require.NoError(t, writeString(&buf, ""))
	require.NoError(t, writeString(&buf, "идентификатор"))

	s, err := readString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = readString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = readString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "идентификатор", s)
}

func TestReadString_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeString(&buf, "hello"))
	truncated := bytes.NewReader(buf.Bytes()[:3])

	_, err := readString(truncated)
	assert.Error(t, err)
}

func TestWriteReadBitmap(t *testing.T) {
	bm := roaring.New()
	bm.AddMany([]uint32{1, 5, 100, 100000})

	var buf bytes.Buffer
	require.NoError(t, writeBitmap(&buf, bm))

	restored, err := readBitmap(&buf)
	require.NoError(t, err)
	assert.True(t, bm.Equals(restored))
}

func TestWriteReadBitmap_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBitmap(&buf, roaring.New()))

	restored, err := readBitmap(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), restored.GetCardinality())
}

func TestWriteReadMemberIndex(t *testing.T) {
	idx := map[string]uint32{"alice": 0, "bob": 1, "carol": 7}

	var buf bytes.Buffer
	require.NoError(t, writeMemberIndex(&buf, idx))

	restored, err := readMemberIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx, restored)
}

func TestWriteReadMemberIndex_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMemberIndex(&buf, map[string]uint32{}))

	restored, err := readMemberIndex(&buf)
	require.NoError(t, err)
	assert.Empty(t, restored)
}
