package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
)

// Direct is the last-resort method: treat the URL as the media itself
// and GET it. Works for bare CDN links, not for share pages.
type Direct struct {
	client *http.Client
}

func NewDirect() *Direct {
	return &Direct{
		client: &http.Client{Timeout: 30 * time.Minute}, // videos can be large
	}
}

func (d *Direct) Name() domain.AcquisitionMethod { return domain.MethodDirectFetch }

func (d *Direct) Fetch(ctx context.Context, req Request, dest string) error {
	return saveURL(ctx, d.client, req.URL, dest)
}
