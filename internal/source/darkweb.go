package source

import (
	"context"

	"github.com/threatlens-io/threatlens/internal/feed"
)

// Darkweb is a placeholder adapter for dark-web forum data. A production
// deployment would scrape over Tor or a broker API; until that lands it
// serves a small canned batch so the rest of the pipeline can be exercised
// end to end.
type Darkweb struct{}

func NewDarkweb() *Darkweb { return &Darkweb{} }

func (d *Darkweb) Name() string { return "darkweb" }

func (d *Darkweb) Fetch(_ context.Context) ([]feed.RawRecord, error) {
	return []feed.RawRecord{
		{
			Source: d.Name(),
			Text:   "Selling RDP access to corporate networks.",
			Metadata: map[string]any{
				"url": "http://exampleonionaddress.onion",
			},
		},
		{
			Source: d.Name(),
			Text:   "Fresh combo list, 2M entries, banking logins included.",
			Metadata: map[string]any{
				"url": "http://exampleonionaddress.onion/thread/4821",
			},
		},
	}, nil
}
