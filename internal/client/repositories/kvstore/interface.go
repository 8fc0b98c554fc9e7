// Package kvstore implements the persistent key-value store the client uses
// as a cache mirror: session credentials and wallet collections survive
// restarts here. Values are opaque strings; key namespaces are owned by the
// services that write them.
package kvstore

import "context"

// Repository is the store contract. Get returns ok=false when the key is
// absent; absence is not an error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
