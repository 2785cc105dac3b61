package decrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"
)

// Format identifies the on-disk container of a save file.
type Format string

const (
	FormatPlain   Format = "plain"
	FormatScsC    Format = "ScsC"
	FormatBSII    Format = "BSII"
	Format3nK     Format = "3nK"
	FormatUnknown Format = "unknown"
)

// PlainMarker is the first token of every plaintext SII document.
const PlainMarker = "SiiNunit"

var (
	ErrTruncated     = errors.New("container truncated")
	ErrCorrupt       = errors.New("container corrupt")
	ErrBinaryFormat  = errors.New("binary SII is not supported")
	ErrUnknownFormat = errors.New("unrecognized file format")
)

var (
	magicScsC = []byte("ScsC")
	magicBSII = []byte("BSII")
	magic3nK  = []byte{0x33, 0x6e, 0x4b}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// ScsC layout: magic(4) hmac(32) iv(16) size(4) body.
const (
	ivOffset   = 36
	sizeOffset = 52
	headerSize = 56
)

var scsKey = []byte{
	0x2a, 0x5f, 0xcb, 0x17, 0x91, 0xd2, 0x2f, 0xb6,
	0x02, 0x45, 0xb3, 0xd8, 0x36, 0x9e, 0xd0, 0xb2,
	0xc2, 0x73, 0x71, 0x56, 0x3f, 0xbf, 0x1f, 0x3c,
	0x9e, 0xdf, 0x6b, 0x11, 0x82, 0x5a, 0x5d, 0x0a,
}

// DecryptError reports a container that could not be turned into text.
// ReadText recovers from it by returning the raw bytes lossily decoded.
type DecryptError struct {
	Format Format
	Err    error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("decode %s container: %v", e.Format, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }

// Classify sniffs the container format of raw file bytes.
func Classify(data []byte) Format {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch {
	case bytes.HasPrefix(data, []byte(PlainMarker)):
		return FormatPlain
	case bytes.HasPrefix(data, magicScsC):
		return FormatScsC
	case bytes.HasPrefix(data, magicBSII):
		return FormatBSII
	case bytes.HasPrefix(data, magic3nK):
		return Format3nK
	case bytes.IndexByte(data, 0) < 0:
		return FormatPlain
	default:
		return FormatUnknown
	}
}

// ReadText reads path and normalizes it into editable SII text. Only I/O
// failures are returned; undecodable containers fall back to lossy text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Decode failed, using raw text")
		return Lossy(data), nil
	}
	return text, nil
}

// ReadForEdit reads path as the base for a splice edit. Plaintext comes back
// byte for byte, with a leading UTF-8 BOM split off into prefix so the caller
// can write it back. Containers go through the same path as ReadText.
func ReadForEdit(path string) (text, prefix string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	if Classify(data) == FormatPlain {
		if bytes.HasPrefix(data, utf8BOM) {
			prefix = string(utf8BOM)
		}
		return string(data[len(prefix):]), prefix, nil
	}

	text, err = Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Decode failed, editing raw text")
		return Lossy(data), "", nil
	}
	return text, "", nil
}

// Decode converts raw file bytes into SII text. The returned error is always
// a *DecryptError.
func Decode(data []byte) (string, error) {
	return decode(data, true)
}

func decode(data []byte, unwrap bool) (string, error) {
	format := Classify(data)
	switch format {
	case FormatPlain:
		return Lossy(data), nil
	case FormatScsC:
		if !unwrap {
			return "", &DecryptError{Format: format, Err: fmt.Errorf("%w: nested container", ErrCorrupt)}
		}
		payload, err := decryptScsC(bytes.TrimPrefix(data, utf8BOM))
		if err != nil {
			return "", &DecryptError{Format: format, Err: err}
		}
		return decode(payload, false)
	case FormatBSII, Format3nK:
		return "", &DecryptError{Format: format, Err: ErrBinaryFormat}
	default:
		return "", &DecryptError{Format: format, Err: ErrUnknownFormat}
	}
}

// Lossy decodes bytes as UTF-8, replacing invalid sequences.
func Lossy(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func decryptScsC(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	iv := data[ivOffset:sizeOffset]
	size := binary.LittleEndian.Uint32(data[sizeOffset:headerSize])
	body := data[headerSize:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: body length %d", ErrCorrupt, len(body))
	}

	block, err := aes.NewCipher(scsKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)
	plain = trimPadding(plain)

	zr, err := zlib.NewReader(bytes.NewReader(plain))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", ErrCorrupt, err)
	}
	if size != 0 && uint32(len(out)) != size {
		return nil, fmt.Errorf("%w: inflated %d bytes, header says %d", ErrCorrupt, len(out), size)
	}
	return out, nil
}

// trimPadding strips PKCS#7 padding when it is well formed.
func trimPadding(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return b
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return b
		}
	}
	return b[:len(b)-n]
}
