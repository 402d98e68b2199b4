// Command phonectl drives a SIM800H from a workstation, either over a USB
// serial adapter or against the built-in modem emulator. It uses the same
// AT session code as the phone firmware.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
