package main

import (
	"github.com/shouni/go-pypi-inspector/cmd"
)

func main() {
	cmd.Execute()
}
