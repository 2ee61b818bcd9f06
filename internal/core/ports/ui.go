package ports

import "context"

// Notifier surfaces a user-facing notice.
type Notifier interface {
	Notify(message string)
}

// Navigator exposes the current view and moves the user to another one.
type Navigator interface {
	CurrentView() string
	Redirect(view string)
}

// Confirmer asks the user to confirm an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}
