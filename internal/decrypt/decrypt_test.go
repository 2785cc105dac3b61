package decrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "SiiNunit\n{\nbank : _nameless.1 {\n money_account: 1200\n}\n}\n"

// sealScsC builds a container the way the game writes one.
func sealScsC(t *testing.T, plain []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	body := compressed.Bytes()
	pad := aes.BlockSize - len(body)%aes.BlockSize
	body = append(body, bytes.Repeat([]byte{byte(pad)}, pad)...)

	iv := []byte("0123456789abcdef")
	block, err := aes.NewCipher(scsKey)
	require.NoError(t, err)
	enc := make([]byte, len(body))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(enc, body)

	out := make([]byte, headerSize, headerSize+len(enc))
	copy(out, magicScsC)
	copy(out[ivOffset:sizeOffset], iv)
	binary.LittleEndian.PutUint32(out[sizeOffset:headerSize], uint32(len(plain)))
	return append(out, enc...)
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.sii")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FormatPlain, Classify([]byte(sample)))
	assert.Equal(t, FormatPlain, Classify(append([]byte{0xef, 0xbb, 0xbf}, sample...)))
	assert.Equal(t, FormatPlain, Classify([]byte("uset g_traffic \"1\"\n")))
	assert.Equal(t, FormatScsC, Classify([]byte("ScsC\x00\x01")))
	assert.Equal(t, FormatBSII, Classify([]byte("BSII\x00\x02")))
	assert.Equal(t, Format3nK, Classify([]byte{0x33, 0x6e, 0x4b, 0x00}))
	assert.Equal(t, FormatUnknown, Classify([]byte{0x01, 0x00, 0x02}))
}

func TestDecodePlaintext(t *testing.T) {
	text, err := Decode([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, sample, text)
}

func TestDecodeScsC(t *testing.T) {
	text, err := Decode(sealScsC(t, []byte(sample)))
	require.NoError(t, err)
	assert.Equal(t, sample, text)
}

func TestDecodeScsCWithBinaryPayload(t *testing.T) {
	_, err := Decode(sealScsC(t, []byte("BSII\x00\x00\x00")))

	var de *DecryptError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, FormatBSII, de.Format)
	assert.ErrorIs(t, err, ErrBinaryFormat)
}

func TestDecodeScsCTruncated(t *testing.T) {
	_, err := Decode([]byte("ScsC\x00\x00"))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeScsCWrongSize(t *testing.T) {
	data := sealScsC(t, []byte(sample))
	binary.LittleEndian.PutUint32(data[sizeOffset:headerSize], 3)

	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReadTextDecryptsContainer(t *testing.T) {
	path := writeFile(t, sealScsC(t, []byte(sample)))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, sample, text)
}

func TestReadTextFallsBackWithoutTouchingFile(t *testing.T) {
	raw := []byte("BSII\x00junk money_account: 5\xff")
	path := writeFile(t, raw)

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "money_account: 5")
	assert.Contains(t, text, "\uFFFD")

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, onDisk)
}

func TestReadTextMissingFile(t *testing.T) {
	_, err := ReadText(filepath.Join(t.TempDir(), "nope.sii"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadForEditKeepsPlaintextBytes(t *testing.T) {
	raw := []byte("\xef\xbb\xbfSiiNunit\n{\nplayer : p1 {\n name: \"M\xfcller\"\n}\n}\n")
	path := writeFile(t, raw)

	text, prefix, err := ReadForEdit(path)
	require.NoError(t, err)
	assert.Equal(t, "\xef\xbb\xbf", prefix)
	assert.Equal(t, raw, []byte(prefix+text))
	assert.NotContains(t, text, "\uFFFD")
}

func TestReadForEditDecryptsContainer(t *testing.T) {
	path := writeFile(t, sealScsC(t, []byte(sample)))

	text, prefix, err := ReadForEdit(path)
	require.NoError(t, err)
	assert.Empty(t, prefix)
	assert.Equal(t, sample, text)
}

func TestReadForEditMissingFile(t *testing.T) {
	_, _, err := ReadForEdit(filepath.Join(t.TempDir(), "nope.sii"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
