package reservation

import "campsite/internal/domain"

type CreateReservationRequest struct {
	SiteID string `json:"site_id" binding:"required"`
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
	// Name is validated by the service so an empty one yields the business
	// rejection, not a 400.
	Name string `json:"name"`
}

type ReservationResponse struct {
	SiteID   string `json:"site_id"`
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

func toResponse(siteID domain.SiteID, r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		SiteID:   string(siteID),
		Name:     r.Name,
		Start:    r.Start.Format(domain.DateLayout),
		End:      r.End.Format(domain.DateLayout),
		Duration: r.DurationDays,
	}
}

func toResponses(siteID domain.SiteID, rs []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(rs))
	for i, r := range rs {
		out[i] = toResponse(siteID, r)
	}
	return out
}
