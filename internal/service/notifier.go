package service

//go:generate mockgen -source=notifier.go -destination=mock/mock_notifier.go -package=mock

import "todolist/backend/internal/model"

// Notifier receives committed changes. Publish must not block on slow
// receivers.
type Notifier interface {
	Publish(change model.Change)
}

type noopNotifier struct{}

func (noopNotifier) Publish(model.Change) {}
