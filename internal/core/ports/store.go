package ports

import "go.trai.ch/kiln/internal/core/domain"

// DerivationStore persists derivations and their realizations by content address.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type DerivationStore interface {
	// Get returns the derivation stored under address, or nil, nil if there is none.
	Get(root, address string) (*domain.Derivation, error)

	// Put stores the derivation under its address.
	Put(root string, drv *domain.Derivation) error

	// GetRealization returns the recorded realization of address, or nil, nil if there is none.
	GetRealization(root, address string) (*domain.Realization, error)

	// PutRealization records where a derivation was materialized.
	PutRealization(root string, r domain.Realization) error
}
