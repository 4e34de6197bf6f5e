// Package store reads items from a single DynamoDB table.
//
// Items issues its reads through whatever client it is given. When that client
// carries the read-through stage from package intercept, [Items.Get] is served
// from the cache on a hit and populates it on a miss, while [Items.List] always
// reaches the table.
//
// # Expiry
//
// DynamoDB deletes TTL-expired items lazily, so an item whose TTL attribute is at
// or before now may still be returned by the table. Items treats such an item as
// absent: [Items.Get] returns [ErrNotFound] and [Items.List] filters it out.
//
// # Configuration
//
// Use [DefaultConfig] and set the table name:
//
//	cfg := store.DefaultConfig()
//	cfg.TableName = "items"
//	items := store.New(client, cacheClient, cfg)
//
// # Errors
//
//   - [ErrNotFound] - item doesn't exist or has expired
//   - [ErrMissingID] - an empty id was passed
package store
