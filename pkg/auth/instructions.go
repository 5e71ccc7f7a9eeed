package auth

import (
	"fmt"
	"io"
	"strings"

	"xfollowers/pkg/config"
)

// ShowAPIKeyGuide writes instructions for obtaining a key from supplier
func ShowAPIKeyGuide(w io.Writer, supplier string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "API KEY SETUP (%s)\n", supplier)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	switch supplier {
	case config.SupplierJoJAPI:
		fmt.Fprintln(w, "1. Sign in to the JoJAPI dashboard.")
		fmt.Fprintln(w, "2. Open the API keys page and create a key.")
		fmt.Fprintln(w, "3. Copy the key. It is sent as the X-JoJAPI-Key header.")
	default:
		fmt.Fprintln(w, "1. Sign in to RapidAPI and subscribe to the twitter135 API.")
		fmt.Fprintln(w, "2. Open the endpoints tab of the API.")
		fmt.Fprintln(w, "3. Copy the value shown for X-RapidAPI-Key.")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "The key can also be supplied without storing it:")
	if names := envKeys[supplier]; len(names) > 0 {
		fmt.Fprintf(w, "   export %s=<key>\n", names[0])
	}
	fmt.Fprintln(w, "   or pass --api-key on the command line.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
