// Package integrations provides HTTP clients for remote code hosts.
//
// The [Client] type wraps a resty client with default headers, status
// classification ([ErrNotFound], [ErrNetwork]) and a cache-through helper
// ([Client.Cached]) backed by [cache.Cache]. Host-specific clients live in
// subpackages:
//
//   - [github]: package-lock.json download through the contents API
//
// [github]: github.com/lockgraph/lockgraph/pkg/integrations/github
// [cache.Cache]: github.com/lockgraph/lockgraph/pkg/cache.Cache
package integrations
