package sprite

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoFrames indicates the animation decoded to zero frames.
var ErrNoFrames = errors.New("animation has no frames")

// Frame is one fully composited animation frame.
type Frame struct {
	Image *image.NRGBA
	// Exif holds a TIFF-structured EXIF block carried by the source, if any.
	Exif []byte
}

// Width returns the frame width in pixels.
func (f Frame) Width() int { return f.Image.Rect.Dx() }

// Height returns the frame height in pixels.
func (f Frame) Height() int { return f.Image.Rect.Dy() }

// AssetID is the lowercase hex MD5 of the frame's decoded pixel buffer.
func (f Frame) AssetID() string {
	sum := md5.Sum(f.Image.Pix)
	return hex.EncodeToString(sum[:])
}

// EncodePNG encodes the frame losslessly, embedding Exif as an eXIf chunk.
func (f Frame) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if len(f.Exif) == 0 {
		return buf.Bytes(), nil
	}
	return insertPNGChunk(buf.Bytes(), "eXIf", f.Exif)
}

// Animation is a decoded sequence of frames in source order. GIF frames are
// composited on demand from a single rolling canvas, so walking the frames
// in order costs one screen-sized buffer plus the frame handed out. An
// Animation is not safe for concurrent use.
type Animation struct {
	Format string
	still  *Frame

	gif    *gif.GIF
	screen image.Rectangle
	canvas *image.NRGBA
	// next is the index of the first GIF frame not yet drawn onto canvas.
	next int
}

// Len returns the number of frames.
func (a *Animation) Len() int {
	if a.still != nil {
		return 1
	}
	if a.gif == nil {
		return 0
	}
	return len(a.gif.Image)
}

// Frame seeks to frame i and returns it fully composited. Seeking backwards
// replays the GIF from its first frame.
func (a *Animation) Frame(i int) (Frame, error) {
	if i < 0 || i >= a.Len() {
		return Frame{}, fmt.Errorf("frame %d out of range [0,%d)", i, a.Len())
	}
	if a.still != nil {
		return *a.still, nil
	}
	if a.canvas == nil || i < a.next {
		a.canvas = image.NewNRGBA(a.screen)
		a.next = 0
	}
	for a.next < i {
		a.advance(false)
	}
	return Frame{Image: a.advance(true)}, nil
}

// advance draws frame a.next onto the canvas, optionally snapshots the
// result, then applies the frame's disposal method.
func (a *Animation) advance(snapshot bool) *image.NRGBA {
	pm := a.gif.Image[a.next]
	var disposal byte
	if a.next < len(a.gif.Disposal) {
		disposal = a.gif.Disposal[a.next]
	}
	var previous *image.NRGBA
	if disposal == gif.DisposalPrevious {
		previous = cloneNRGBA(a.canvas)
	}

	draw.Draw(a.canvas, pm.Bounds(), pm, pm.Bounds().Min, draw.Over)
	var out *image.NRGBA
	if snapshot {
		out = cloneNRGBA(a.canvas)
	}

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(a.canvas, pm.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		a.canvas = previous
	}
	a.next++
	return out
}

// DecodeAnimation reads an image file. GIFs yield every frame composited
// onto the logical screen; other registered formats yield one frame.
func DecodeAnimation(path string) (*Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read animation: %w", err)
	}

	var anim *Animation
	if bytes.HasPrefix(data, []byte("GIF8")) {
		anim, err = decodeGIF(data)
	} else {
		anim, err = decodeStill(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if anim.Len() == 0 {
		return nil, fmt.Errorf("decode %s: %w", path, ErrNoFrames)
	}
	return anim, nil
}

func decodeGIF(data []byte) (*Animation, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() {
		for _, pm := range g.Image {
			screen = screen.Union(image.Rect(0, 0, pm.Bounds().Max.X, pm.Bounds().Max.Y))
		}
	}
	return &Animation{Format: "gif", gif: g, screen: screen}, nil
}

func decodeStill(data []byte) (*Animation, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Rect, img, bounds.Min, draw.Src)

	frame := Frame{Image: nrgba}
	if format == "jpeg" {
		frame.Exif = jpegExif(data)
	}
	return &Animation{Format: format, still: &frame}, nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}

var exifHeader = []byte("Exif\x00\x00")

// jpegExif returns the TIFF payload of the first APP1 Exif segment.
func jpegExif(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil
		}
		marker := data[pos+1]
		if marker == 0xDA || marker == 0xD9 {
			return nil
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if length < 2 || pos+2+length > len(data) {
			return nil
		}
		payload := data[pos+4 : pos+2+length]
		if marker == 0xE1 && bytes.HasPrefix(payload, exifHeader) {
			out := make([]byte, len(payload)-len(exifHeader))
			copy(out, payload[len(exifHeader):])
			return out
		}
		pos += 2 + length
	}
	return nil
}

// pngHeaderLen covers the signature plus the IHDR chunk, which must come first.
const pngHeaderLen = 8 + 4 + 4 + 13 + 4

func insertPNGChunk(encoded []byte, chunkType string, payload []byte) ([]byte, error) {
	if len(encoded) < pngHeaderLen || string(encoded[12:16]) != "IHDR" {
		return nil, errors.New("insert png chunk: unexpected png layout")
	}
	chunk := make([]byte, 0, 12+len(payload))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, chunkType...)
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(encoded)+len(chunk))
	out = append(out, encoded[:pngHeaderLen]...)
	out = append(out, chunk...)
	out = append(out, encoded[pngHeaderLen:]...)
	return out, nil
}
