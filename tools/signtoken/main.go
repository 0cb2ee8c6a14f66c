// Command signtoken prints the provisioning token for a device serial.
// Useful when enrolling devices by hand or scripting fleet enrollment.
package main

import (
	"flag"
	"fmt"
	"os"

	"iot-ingest-cloud/internal/auth"
)

func main() {
	serial := flag.String("serial", "", "device serial to sign")
	secret := flag.String("secret", os.Getenv("PROVISION_SECRET"), "shared provisioning secret")
	flag.Parse()

	if *serial == "" {
		fmt.Fprintln(os.Stderr, "signtoken: -serial is required")
		os.Exit(2)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "signtoken: -secret or PROVISION_SECRET is required")
		os.Exit(2)
	}

	fmt.Println(auth.SignSerial(*secret, *serial))
}
