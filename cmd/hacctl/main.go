package main

import (
	"context"

	"hacproxy/cmd/hacctl/commands"
	"hacproxy/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
