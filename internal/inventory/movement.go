package inventory

// MovementType classifies a stock movement row. "in"/"out" are physical
// receipts and issues, "transfer" moves stock between locations, and
// "reservation"/"restoration" track stock held for and released from orders.
type MovementType string

const (
	MovementIn          MovementType = "in"
	MovementOut         MovementType = "out"
	MovementAdjustment  MovementType = "adjustment"
	MovementTransfer    MovementType = "transfer"
	MovementReservation MovementType = "reservation"
	MovementRestoration MovementType = "restoration"
)

func ValidMovementType(value string) bool {
	switch MovementType(value) {
	case MovementIn, MovementOut, MovementAdjustment,
		MovementTransfer, MovementReservation, MovementRestoration:
		return true
	}
	return false
}
