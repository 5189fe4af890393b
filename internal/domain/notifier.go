package domain

import "context"

type Notifier interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}
