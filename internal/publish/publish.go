// Package publish upserts generated pages into an artifact store addressed
// by slug. Every backend reads the current revision first and makes the
// write conditional on it, so republishing a slug updates the one live
// object instead of creating another.
package publish

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Publisher upserts content under key and returns where it is reachable.
type Publisher interface {
	Publish(ctx context.Context, key string, content []byte) (model.PublishResult, error)
}

const indexFile = "index.html"

// objectPath joins the configured root with the artifact key.
func objectPath(root, key string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return key + "/" + indexFile
	}
	return root + "/" + key + "/" + indexFile
}

// joinURL appends the key directory to base, always ending in "/".
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(key) + "/"
}

// checkKey rejects keys that are not valid slugs before any network call.
func checkKey(op, key string) *model.Error {
	if !extract.ValidSlug(key) {
		return model.NewError(model.KindPublish, op, "invalid artifact key "+strconv.Quote(key))
	}
	return nil
}

// failure builds the PublishResult and error for a failed publish.
func failure(e *model.Error) (model.PublishResult, error) {
	return model.PublishResult{Success: false, Error: e.Error()}, e
}
