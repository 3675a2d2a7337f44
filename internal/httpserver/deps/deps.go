package deps

import (
	"time"

	"github.com/readmark/readmark/internal/catalog"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/remote"
	"github.com/readmark/readmark/internal/session"
	"github.com/readmark/readmark/internal/store"
	"github.com/readmark/readmark/internal/syncer"
	"github.com/readmark/readmark/internal/token"
	"github.com/readmark/readmark/internal/user"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Catalog  *catalog.Catalog  // readable-content catalog
	Store    store.Store       // local per-user collections
	Tokens   *token.Manager    // credential lifecycle
	Remote   *remote.Client    // Blogger-compatible CMS client
	Sessions *session.Registry // open reading sessions
	Syncer   *syncer.Service   // debounced bookmark persistence
	User     *user.Session     // current sign-in state

	StorageDegraded      bool          // true when running on the in-memory fallback store
	CatalogReloadTrigger chan struct{} // channel to trigger manual catalog reload
}
