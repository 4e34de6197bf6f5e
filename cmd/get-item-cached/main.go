// Command get-item-cached serves single-item reads through the read-through cache.
package main

import (
	"github.com/jacentio/itemcache/internal/app"
)

func main() {
	app.Run("get-item-cached", func(a *app.App) any {
		return a.APIHandlers().GetItem
	})
}
