package service

// Authorize allows a change only when the requester owns the resource.
func Authorize(requesterID, ownerID string) error {
	if requesterID == "" || requesterID != ownerID {
		return ErrForbidden
	}
	return nil
}
