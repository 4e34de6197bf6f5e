// Command get-items lists every live item in the table.
package main

import (
	"github.com/jacentio/itemcache/internal/app"
)

func main() {
	app.Run("get-items", func(a *app.App) any {
		return a.APIHandlers().ListItems
	})
}
