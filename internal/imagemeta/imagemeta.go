// Package imagemeta extracts capture timestamps and media types from
// uploaded screenshot files.
package imagemeta

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/carvtrainer/carvtrainer/internal/models"
)

var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// MediaType returns the MIME type for a filename, defaulting to image/png.
func MediaType(filename string) string {
	ext := strings.ToLower(filename)
	if i := strings.LastIndex(ext, "."); i >= 0 {
		ext = ext[i+1:]
	}
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return "image/png"
}

// Supported reports whether the filename carries a recognised image extension.
func Supported(filename string) bool {
	lower := strings.ToLower(filename)
	for ext := range mediaTypes {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

var (
	// Screenshot 2024-01-15 at 10.30.45.png
	screenshotNameRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2}).*?(\d{1,2})\.(\d{2})\.(\d{2})`)
	// IMG_20240115_103045.jpg
	compactNameRe = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})`)
)

// Datetime resolves the capture time of an image, trying EXIF first and the
// filename second. It returns the zero time and models.SourceUpload when
// neither yields anything usable.
func Datetime(filename string, data []byte) (time.Time, string) {
	if t, err := exifDatetime(data); err == nil {
		return t, models.SourceEXIF
	}
	if t, err := filenameDatetime(filename); err == nil {
		return t, models.SourceFilename
	}
	return time.Time{}, models.SourceUpload
}

// exifDatetime reads DateTimeOriginal/DateTime/DateTimeDigitized from the
// image's EXIF block.
func exifDatetime(data []byte) (time.Time, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, err
	}
	if t, err := x.DateTime(); err == nil {
		return t, nil
	}
	tag, err := x.Get(exif.DateTimeDigitized)
	if err != nil {
		return time.Time{}, err
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("2006:01:02 15:04:05", s)
}

// filenameDatetime recognises common screenshot naming patterns.
func filenameDatetime(filename string) (time.Time, error) {
	if m := screenshotNameRe.FindStringSubmatch(filename); m != nil {
		t, err := time.Parse("2006-01-02 15.04.05",
			fmt.Sprintf("%s-%s-%s %s.%s.%s", m[1], m[2], m[3], m[4], m[5], m[6]))
		if err == nil {
			return t, nil
		}
	}
	if m := compactNameRe.FindStringSubmatch(filename); m != nil {
		t, err := time.Parse("20060102_150405", m[1]+m[2]+m[3]+"_"+m[4]+m[5]+m[6])
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("imagemeta: no datetime in filename %q", filename)
}

// Resolve applies the timestamp precedence rule for the progress log:
// the datetime displayed on the screenshot (read by the model) beats EXIF,
// which beats the filename, which beats the upload time.
func Resolve(screenshotTime, metaTime time.Time, metaSource string, uploadTime time.Time) (time.Time, string) {
	if !screenshotTime.IsZero() {
		return screenshotTime, models.SourceScreenshot
	}
	if !metaTime.IsZero() {
		return metaTime, metaSource
	}
	return uploadTime, models.SourceUpload
}
