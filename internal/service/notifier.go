package service

// Notifier pushes economy events (balance changes, rank ups, completed
// purchases) to connected clients. The WebSocket hub implements it;
// services fall back to a no-op when none is wired.
type Notifier interface {
	Notify(userID int64, event string, payload map[string]interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(int64, string, map[string]interface{}) {}
