package lib

import (
	"etms/src/config"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

var assetHTTPClient = &http.Client{Timeout: 5 * time.Second}

// FetchAsset resolves a certificate asset reference. http(s) URLs are
// fetched with a short timeout; anything else is read from the local
// uploads directory.
func FetchAsset(ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := assetHTTPClient.Get(ref)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("asset fetch returned status %d for %s", resp.StatusCode, ref)
		}
		return io.ReadAll(resp.Body)
	}
	rel := strings.TrimPrefix(ref, "/uploads/")
	rel = strings.TrimPrefix(rel, "uploads/")
	return os.ReadFile(path.Join(config.UploadsDir(), path.Clean("/"+rel)))
}
