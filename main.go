package main

import (
	"github.com/louis030195/bigbrother/cmd"

	_ "github.com/louis030195/bigbrother/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
