package main

import (
	"github.com/mj1618/a11y-lens/cmd"

	_ "github.com/mj1618/a11y-lens/internal/platform/chrome"
)

func main() {
	cmd.Execute()
}
