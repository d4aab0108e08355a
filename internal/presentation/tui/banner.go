package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the smactl ASCII banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Ocean-ish gradient, fitting for sea surface temperature tooling.
	s1 := termenv.String("                          _   _ ").Foreground(p.Color("#38bdf8"))
	s2 := termenv.String("  ___ _ __ ___   __ _  ___| |_| |").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String(" / __| '_ ` _ \\ / _` |/ __| __| |").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" \\__ \\ | | | | | (_| | (__| |_| |").Foreground(p.Color("#34d399"))
	s5 := termenv.String(" |___/_| |_| |_|\\__,_|\\___|\\__|_|").Foreground(p.Color("#4ade80"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Printf("  %s\n", termenv.String("v"+version).Faint())
	fmt.Println()
}
