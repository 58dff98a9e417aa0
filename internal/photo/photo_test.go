package photo

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessPNGBecomesJPEG(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(testPNG(80, 60)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if w, h := decodedSize(t, result.Data); w != 80 || h != 60 {
		t.Errorf("small photo should keep its size, got %dx%d", w, h)
	}
}

func TestProcessScalesDownKeepingAspect(t *testing.T) {
	p := Processor{MaxDimension: 200}
	result, err := p.Process(bytes.NewReader(testJPEG(800, 400)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if w, h := decodedSize(t, result.Data); w != 200 || h != 100 {
		t.Errorf("expected 200x100, got %dx%d", w, h)
	}

	result, err = p.Process(bytes.NewReader(testJPEG(300, 900)))
	if err != nil {
		t.Fatalf("Process portrait: %v", err)
	}
	if w, h := decodedSize(t, result.Data); w != 66 || h != 200 {
		t.Errorf("expected 66x200, got %dx%d", w, h)
	}
}

func TestProcessDefaultLimit(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(testJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if w, _ := decodedSize(t, result.Data); w != DefaultMaxDimension {
		t.Errorf("expected width %d, got %d", DefaultMaxDimension, w)
	}
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("not a photo"),
		[]byte("GIF89a......"),
	} {
		_, err := Processor{}.Process(bytes.NewReader(data))
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported for %q, got %v", data, err)
		}
	}
}

func TestProcessRejectsOversizedInput(t *testing.T) {
	data := make([]byte, MaxInputSize+10)
	_, err := Processor{}.Process(bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
