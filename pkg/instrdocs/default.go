package instrdocs

import (
	"os"
	"sync"

	"github.com/yaklabco/asmbridge/internal/logging"
)

// EnvDocsPath names the environment variable holding the documentation
// file path for the default index.
const EnvDocsPath = "ASMBRIDGE_DOCS_PPC"

//nolint:gochecknoglobals // Process-wide index shared by every request.
var (
	defaultIndex     *Index
	defaultIndexOnce sync.Once
	defaultIndexMu   sync.RWMutex
)

// Default returns the process-wide index. It is built on first use from the
// file named by ASMBRIDGE_DOCS_PPC. A missing variable or an unreadable
// file leaves it empty.
func Default() *Index {
	defaultIndexOnce.Do(func() {
		idx := loadFromEnv()
		defaultIndexMu.Lock()
		defaultIndex = idx
		defaultIndexMu.Unlock()
	})

	defaultIndexMu.RLock()
	defer defaultIndexMu.RUnlock()
	return defaultIndex
}

// SetDefault replaces the process-wide index. Once called, the environment
// is no longer consulted.
func SetDefault(idx *Index) {
	defaultIndexOnce.Do(func() {})

	defaultIndexMu.Lock()
	defaultIndex = idx
	defaultIndexMu.Unlock()
}

func loadFromEnv() *Index {
	path := os.Getenv(EnvDocsPath)
	if path == "" {
		return &Index{}
	}

	idx, err := Load(path)
	if err != nil {
		logging.Default().Error("failed to load instruction docs",
			logging.FieldDocsPath, path,
			logging.FieldError, err,
		)
		return &Index{}
	}

	logging.Default().Debug("loaded instruction docs",
		logging.FieldDocsPath, path,
		"names", idx.Len(),
	)
	return idx
}
