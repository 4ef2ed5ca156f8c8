package orders

import "fmt"

// RemoveMode selects what happens to reserved stock when an order is removed.
type RemoveMode string

const (
	// ModeCancel returns the order's quantity to stock.
	ModeCancel RemoveMode = "cancel"
	// ModeDelete discards the order; stock was already reconciled.
	ModeDelete RemoveMode = "delete"
)

func ParseRemoveMode(s string) (RemoveMode, error) {
	switch m := RemoveMode(s); m {
	case ModeCancel, ModeDelete:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m RemoveMode) restoresStock() bool { return m == ModeCancel }
