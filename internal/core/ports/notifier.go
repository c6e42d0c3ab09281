package ports

import "go.trai.ch/tola/internal/core/domain"

// Notifier receives the report of every completed submission.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Notify(report domain.BuildReport)
}
