package services

import "github.com/VinayBibyan/Donation-Network/internal/models"

// authorizeOwner allows a mutation only when the actor owns the listing.
// A missing listing is reported before ownership is considered.
func authorizeOwner(listing *models.Listing, actorID string) error {
	if listing == nil {
		return ErrNotFound
	}
	if actorID == "" || listing.OwnerID != actorID {
		return ErrForbidden
	}
	return nil
}
