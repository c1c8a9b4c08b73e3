// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"qbsp/cmd"
)

func main() {
	cmd.Execute()
}
