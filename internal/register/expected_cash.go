package register

import "time"

// EstimateExpectedCash suggests the cash a register should hold at close:
// the opening float plus every paid cash order created at or after the
// session opened. It is a convenience estimate for the operator; the value
// submitted with the close request is what the server records.
func EstimateExpectedCash(openingFloat float64, openAt time.Time, orders []OrderRecord) float64 {
	total := openingFloat
	for _, record := range orders {
		if record.PaymentStatus != "paid" || record.PaymentMethod != "cash" {
			continue
		}
		if record.CreatedAt.Before(openAt) {
			continue
		}
		total += record.TotalAmount
	}
	return total
}
