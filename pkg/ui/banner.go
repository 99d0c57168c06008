package ui

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/proxyvet/proxyvet/pkg/ui.Version=1.0.0"
var (
	Version   = "1.2.0"
	BuildDate = "2026-08-20"
	Commit    = "dev"
)

// UserAgent returns the standard User-Agent string for probe requests
func UserAgent() string {
	return fmt.Sprintf("proxyvet/%s", Version)
}

const bannerArt = `
                                             __
    ____  _________  _  ____  ___   _____  _/ /_
   / __ \/ ___/ __ \| |/_/ / / / | / / _ \/ __/
  / /_/ / /  / /_/ />  </ /_/ /| |/ /  __/ /_
 / .___/_/   \____/_/|_|\__, / |___/\___/\__/
/_/                    /____/
`

const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info to stderr,
// keeping stdout clean for results.
func PrintBanner() {
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(os.Stderr, "                       v%s\n\n", VersionStyle.Render(Version))
}

// printOption prints a configuration option in ffuf/nuclei style
// Format:  :: Option              : Value
func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner shows the effective settings before the run starts.
// Uses ordered keys for consistent display.
func PrintConfigBanner(options map[string]string) {
	order := []string{
		"Target", "Proxy Types", "Input", "Exclusions",
		"Workers", "Rate Limit", "Timeout",
		"Output", "Format",
	}

	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}

	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// Summary is the end-of-run report printed to stderr.
type Summary struct {
	Candidates int
	Dropped    int // malformed or excluded before probing
	Tasks      int
	Good       int
	Failed     int
	Duration   time.Duration
}

// PrintSummary renders the end-of-run statistics to stderr.
func PrintSummary(s Summary) {
	fmt.Fprintf(os.Stderr, "\n%s\n", DividerStyle.Render(bannerSeparator))
	printStat("Candidates", fmt.Sprintf("%d", s.Candidates))
	if s.Dropped > 0 {
		printStat("Dropped", fmt.Sprintf("%d", s.Dropped))
	}
	printStat("Probes", fmt.Sprintf("%d", s.Tasks))
	printStat("Working", GoodStyle.Render(fmt.Sprintf("%d", s.Good)))
	printStat("Failed", BadStyle.Render(fmt.Sprintf("%d", s.Failed)))
	printStat("Duration", s.Duration.Round(time.Millisecond).String())
}

func printStat(label, value string) {
	fmt.Fprintf(os.Stderr, " %s %s\n", StatLabelStyle.Render(fmt.Sprintf("%-12s:", label)), StatValueStyle.Render(value))
}
