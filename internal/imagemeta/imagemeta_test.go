package imagemeta

import (
	"testing"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/models"
)

func TestMediaType(t *testing.T) {
	cases := []struct{ name, want string }{
		{"run.png", "image/png"},
		{"run.JPG", "image/jpeg"},
		{"run.jpeg", "image/jpeg"},
		{"run.webp", "image/webp"},
		{"run.gif", "image/gif"},
		{"run.bmp", "image/png"}, // unknown extensions fall back to png
		{"noext", "image/png"},
	}
	for _, c := range cases {
		if got := MediaType(c.name); got != c.want {
			t.Errorf("MediaType(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("Screenshot.PNG") {
		t.Errorf("png should be supported")
	}
	if Supported("notes.pdf") || Supported("archive.zip") {
		t.Errorf("non-image extensions must be rejected")
	}
}

func TestFilenameDatetime_ScreenshotPattern(t *testing.T) {
	got, err := filenameDatetime("Screenshot 2024-01-15 at 10.30.45.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilenameDatetime_SingleDigitHour(t *testing.T) {
	got, err := filenameDatetime("Screenshot 2024-01-15 at 9.05.01.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 5 {
		t.Errorf("got %v", got)
	}
}

func TestFilenameDatetime_CompactPattern(t *testing.T) {
	got, err := filenameDatetime("IMG_20240115_103045.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilenameDatetime_NoPattern(t *testing.T) {
	if _, err := filenameDatetime("carv-session.png"); err == nil {
		t.Errorf("expected error for patternless filename")
	}
}

func TestDatetime_FallsBackToUpload(t *testing.T) {
	// Not a real image: EXIF decode fails, name has no pattern.
	got, source := Datetime("session.png", []byte("not an image"))
	if !got.IsZero() || source != models.SourceUpload {
		t.Errorf("got %v/%q, want zero/upload", got, source)
	}
}

func TestResolve_Precedence(t *testing.T) {
	shot := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	exifT := time.Date(2024, 1, 15, 10, 31, 0, 0, time.UTC)
	upload := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	if got, src := Resolve(shot, exifT, models.SourceEXIF, upload); !got.Equal(shot) || src != models.SourceScreenshot {
		t.Errorf("screenshot time must win: %v %q", got, src)
	}
	if got, src := Resolve(time.Time{}, exifT, models.SourceEXIF, upload); !got.Equal(exifT) || src != models.SourceEXIF {
		t.Errorf("exif beats upload: %v %q", got, src)
	}
	if got, src := Resolve(time.Time{}, time.Time{}, models.SourceUpload, upload); !got.Equal(upload) || src != models.SourceUpload {
		t.Errorf("upload is the last resort: %v %q", got, src)
	}
}
