package cmd

import (
	"fmt"
	"io"
)

const banner = `
       _       _         _           _    
   ___| |_   _| |__   __| | ___  ___| | __
  / __| | | | | '_ \ / _` + "`" + ` |/ _ \/ __| |/ /
 | (__| | |_| | |_) | (_| |  __/\__ \   < 
  \___|_|\__,_|_.__/ \__,_|\___||___/_|\_\
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Mergington Activity Desk - Version %s\x1b[0m\n\n", Version)
}
