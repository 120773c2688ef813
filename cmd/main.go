/*
 *  main.go
 *  cmd
 *
 *  Created by MICOS-2024 Team on 03/08/24
 *  Copyright © 2024 MICOS-2024 Team. All rights reserved.
 */

package main

import (
	"os"

	logging "github.com/op/go-logging"
	"github.com/micos2024/micos"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(micos.BackendFormatter)
	if err := micos.Execute(); err != nil {
		os.Exit(1)
	}
}
