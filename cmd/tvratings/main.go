package main

import (
	"context"

	"tvratings-parser/cmd/tvratings/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
