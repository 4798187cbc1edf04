package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/joho/godotenv"
)

// Prints the resolved owner table so an operator can check which owners will
// come up live and which stay pending before starting the server.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	owners := service.NewOwnerRegistry(cfg)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREGION\tCITIES\tSTATUS\tAPI KEY\tWALLET")
	for _, p := range owners.Profiles() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Region, strings.Join(p.Cities, ","), p.Status, orDash(p.APIKey), orDash(p.Wallet))
	}
	_ = w.Flush()

	fmt.Printf("\nhome owner: %s  venue: %s  poll: %v (fast %s, slow %s)\n",
		owners.HomeOwner(), cfg.Dashboard.Venue, cfg.Poll.Enabled, cfg.Poll.FastInterval, cfg.Poll.SlowInterval)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
