/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package common

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// LogError: print an error message
// in case of "critic" at true, the program will stop on code 1
func LogError(
	w io.Writer,
	message string,
	critic bool,
) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "%s\n", message)

	if critic {
		os.Exit(1)
	}
}

// LogInfo: for a simple logging info
func LogInfo(
	w io.Writer,
	message string,
	callback func(),
) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "%s\n", message)

	// for a given callback
	if callback != nil {
		callback()
	}
}

// CheckArgs: check arguments are correctly passed then help callback if not
func CheckArgs(args []string, wanted int, help func() error) {
	if len(args) < wanted {
		if help != nil {
			help()
		}
		os.Exit(1)
	}
}

// GetArgByKey get an argument value based on a key input + a strict mode for required params
func GetArgByKey(
	key string,
	cmdFlags *pflag.FlagSet,
	strictMode bool,
	errOut io.Writer,
) string {
	value, err := cmdFlags.GetString(key)
	if strictMode && (err != nil || value == "") {
		msg := fmt.Sprintf("[x] %v, is not set and is required for your command.", key)
		LogError(errOut, msg, true)
	}
	return value
}
