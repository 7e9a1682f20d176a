package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

// Event represents the payload published downstream. Partial marks items from a
// load that dropped malformed articles.
type Event struct {
	ItemID      string          `json:"item_id"`
	Item        domain.NewsItem `json:"item"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Partial     bool            `json:"partial,omitempty"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent constructs an Event for a delivered news item and its scraped metadata.
func NewEvent(item domain.NewsItem, description, imageURL string) Event {
	return Event{
		ItemID:      item.ID(),
		Item:        item,
		Description: description,
		ImageURL:    imageURL,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes returns the routing metadata attached to queue messages and webhook headers.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"item_id": e.ItemID}
	if e.Item.Section != "" {
		attrs["section"] = e.Item.Section
	}
	if e.Partial {
		attrs["partial"] = strconv.FormatBool(e.Partial)
	}
	return attrs
}
