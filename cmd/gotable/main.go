// Command gotable serves tables read from files or SQL databases.
package main

import (
	"context"
	"os"
)

func main() {
	if err := execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
