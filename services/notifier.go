package services

import "github.com/vnkhanh/e-learning-backend/models"

// Notifier delivers realtime events to a user. Delivery is best effort.
type Notifier interface {
	NotifyUser(userID uint, event models.Event)
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(uint, models.Event) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
