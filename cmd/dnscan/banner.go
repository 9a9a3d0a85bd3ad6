package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const bannerArt = `
+=================================================================+
|       ###    #   #   ####    ####     #     #   #                |
|       #  #   ##  #  #       #        # #    ##  #                |
|       #  #   # # #   ###    #       #####   # # #                |
|       #  #   #  ##      #   #       #   #   #  ##                |
|       ###    #   #  ####     ####   #   #   #   #                |
+=================================================================+
`

func printBanner(w io.Writer, scanID string) {
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	red.Fprint(w, bannerArt)
	cyan.Fprint(w, "  DNS zone-transfer, subdomain, takeover and record scanner")
	gray.Fprintf(w, "  v%s\n", Version)
	gray.Fprintf(w, "  scan %s\n", scanID)
	fmt.Fprintln(w)
}
