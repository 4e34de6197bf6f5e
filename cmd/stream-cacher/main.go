// Command stream-cacher mirrors DynamoDB stream records into the cache.
package main

import (
	"github.com/jacentio/itemcache/internal/app"
)

func main() {
	app.Run("stream-cacher", func(a *app.App) any {
		return a.StreamHandler().HandleSync
	})
}
