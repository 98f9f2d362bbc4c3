package control_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nsimlab/loadsim/pkg/control"
)

// Example demonstrates watching a stop file for a sweep abort. No stop file
// is created here, so the wait ends at its timeout.
func Example() {
	controller := control.New(control.Config{
		StopFile:             "/tmp/loadsim-abort-test",
		PollInterval:         1 * time.Second,
		EnableSignalHandlers: false,
	})

	os.Remove(controller.StopFilePath())

	controller.OnStop(func() {
		fmt.Println("sweep abort triggered!")
		fmt.Println("tearing down the current run...")
		fmt.Println("teardown complete")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller.Start(ctx)

	fmt.Println("controller started, watching for sweep abort...")
	fmt.Println("create the stop file to abort:")
	fmt.Printf("  touch %s\n", controller.StopFilePath())

	select {
	case <-controller.Done():
		fmt.Println("sweep abort detected via channel")
	case <-time.After(3 * time.Second):
		fmt.Println("no abort triggered (timeout)")
	}

	os.Remove(controller.StopFilePath())

	// Output:
	// controller started, watching for sweep abort...
	// create the stop file to abort:
	//   touch /tmp/loadsim-abort-test
	// no abort triggered (timeout)
}
