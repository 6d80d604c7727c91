package dto

// AdminPerformanceResponse is the per-administrator metrics rollup.
type AdminPerformanceResponse struct {
	AdminID             string `json:"admin_id"`
	TicketsCatered      int    `json:"tickets_catered"`
	InProgress          int    `json:"in_progress"`
	Resolved            int    `json:"resolved"`
	EscalationsResolved int    `json:"escalations_resolved"`
	TicketsEscalated    int    `json:"tickets_escalated"`
	TicketsReferred     int    `json:"tickets_referred"`
	AvgResponseTime     string `json:"avg_response_time"`
	AvgResolutionTime   string `json:"avg_resolution_time"`
}
