package domain

import (
	"strings"
	"time"
)

// Mapping binds a short code to the URL it redirects to. Mappings are
// immutable once stored.
type Mapping struct {
	ShortCode      string    `db:"short_code" json:"shortCode"`
	DestinationURL string    `db:"destination_url" json:"destinationUrl"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

func NewMapping(shortCode, destinationURL string) (*Mapping, error) {
	if strings.TrimSpace(shortCode) == "" {
		return nil, E("domain.NewMapping", KindInternal, ErrEmptyShortCode)
	}
	if strings.TrimSpace(destinationURL) == "" {
		return nil, E("domain.NewMapping", KindInvalidLink, nil)
	}

	return &Mapping{
		ShortCode:      shortCode,
		DestinationURL: destinationURL,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
