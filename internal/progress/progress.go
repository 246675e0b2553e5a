package progress

import "github.com/carvtrainer/carvtrainer/internal/models"

// Log defines the interface for progress-log operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type Log interface {
	AddEntry(e models.Entry) error
	GetEntry(id string) (*models.Entry, error)
	ListEntries(limit, offset int) ([]models.Entry, int, error)
	DeleteEntry(id string) error

	UpsertScreenshot(s models.Screenshot) error
	ScreenshotByChecksum(checksum string) (*models.Screenshot, error)
	ScreenshotByPath(path string) (*models.Screenshot, error)
	ListScreenshots() ([]models.Screenshot, error)
	DeleteScreenshot(path string) error
	AllScreenshotChecksums() (map[string]string, error)

	Close() error
}

// Verify *DB satisfies Log at compile time.
var _ Log = (*DB)(nil)
