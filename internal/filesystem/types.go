package filesystem

import (
	"time"

	"github.com/ferrumhost/warden/internal/config"
	"github.com/ferrumhost/warden/internal/logging"
)

// Metadata describes one filesystem entry. The shape is serialized verbatim
// by the control-plane API.
type Metadata struct {
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	Size      int64     `json:"size"`
	Directory bool      `json:"directory"`
	File      bool      `json:"file"`
	Symlink   bool      `json:"symlink"`
	Mime      string    `json:"mime"`
}

// mimeUnknown is reported when MIME detection fails or does not apply.
const mimeUnknown = "unknown"

// Filesystem manages the private directory tree of one server instance.
// Every operation resolves its arguments under the instance root before
// touching the disk.
type Filesystem struct {
	root     string
	log      *logging.Logger
	settings config.FilesConfig

	// Set when a config reconciler is attached; Write consults it so the
	// watcher can tell the daemon's own writes from external edits.
	rec *ConfigReconciler
}

// New creates a Filesystem rooted at the given absolute directory. Zero
// values in settings fall back to the daemon defaults.
func New(root string, settings config.FilesConfig, log *logging.Logger) *Filesystem {
	defaults := config.Default().Files
	if settings.ReadLimit <= 0 {
		settings.ReadLimit = defaults.ReadLimit
	}
	if settings.TailBytes <= 0 {
		settings.TailBytes = defaults.TailBytes
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = defaults.Concurrency
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Filesystem{
		root:     root,
		log:      log,
		settings: settings,
	}
}

// Root returns the absolute root directory of the instance.
func (fs *Filesystem) Root() string {
	return fs.root
}
