package main

import (
	"context"

	"eatap-backend/cmd/eatap-cli/commands"
	"eatap-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
