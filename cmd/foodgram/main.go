// Command foodgram runs the recipe API server and its operator commands.
//
//	foodgram serve
//	foodgram load-ingredients --path data/ingredients.csv
//	foodgram issue-token --user-id 1
package main

import (
	"os"

	"github.com/sakif/foodgram/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
