// Command initdb bootstraps the exchange database: creates the schema and
// optionally resets it or seeds two well-known development accounts.
package main

import (
	"flag"
	"log"

	"github.com/Rik-de-Kort/OrderbookGame/params"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

// Development accounts with known passwords (rik/foo123, ada/bar123).
var seedAccounts = []struct {
	name string
	hash string
}{
	{"rik", "$2b$12$IPLrdHW7c.Z9i9qzBfzKMud8W9vuRotGEqqs690IPukZkNhPD9YOi"},
	{"ada", "$2b$12$Nq6wV4XoWJRCUc8efmf0IOzYkFR0Rh.D0y8rKd0e7wV9MW2OQrqaC"},
}

func main() {
	reset := flag.Bool("reset", false, "drop and recreate all tables")
	seed := flag.Bool("seed", false, "insert development accounts")
	flag.Parse()

	cfg := params.LoadFromEnv("")

	db, err := store.Open(cfg.DBLocation)
	if err != nil {
		log.Fatalf("open %s: %v", cfg.DBLocation, err)
	}
	defer db.Close()

	if *reset {
		if err := db.Reset(); err != nil {
			log.Fatalf("reset: %v", err)
		}
		log.Printf("reset %s", cfg.DBLocation)
	} else {
		if err := db.InitSchema(); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		log.Printf("initialized %s", cfg.DBLocation)
	}

	if *seed {
		for _, acc := range seedAccounts {
			rec, err := db.SeedParticipant(acc.name, acc.hash, cfg.StartingBalance)
			if err != nil {
				log.Fatalf("seed %s: %v", acc.name, err)
			}
			log.Printf("seeded participant %d (%s)", rec.ParticipantID, rec.Name)
		}
	}
}
