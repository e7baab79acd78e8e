// keibadiag inspects the payout ledger for one (race, user) pair so an
// operator can spot double-payout or missed-payout conditions by hand.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"keibaboard/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var dbPath string
	var raceID string
	var userID int64
	flag.StringVar(&dbPath, "db", os.Getenv("KEIBA_DATABASE_PATH"), "Path to the sqlite database")
	flag.StringVar(&raceID, "race", "", "Race id (YYYYMMDD_HHMM)")
	flag.Int64Var(&userID, "user", 0, "User id")
	flag.Parse()

	if raceID == "" || userID == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if !storage.ValidRaceID(raceID) {
		log.Fatalf("Invalid race id: %q", raceID)
	}

	if err := storage.InitDB(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer storage.CloseDB()

	payouts, err := storage.CountPayoutTransactions(raceID, userID)
	if err != nil {
		log.Fatalf("Failed to count payout transactions: %v", err)
	}

	bets, err := storage.BetsForRaceUser(raceID, userID)
	if err != nil {
		log.Fatalf("Failed to get bets: %v", err)
	}

	fmt.Printf("Race %s, user %d\n", raceID, userID)
	fmt.Printf("PAYOUT transactions: %d\n", payouts)
	fmt.Printf("Bets: %d\n", len(bets))

	winners := 0
	for _, bet := range bets {
		status := "pending"
		if bet.Resolved() {
			if *bet.IsWin {
				status = "win"
				winners++
			} else {
				status = "loss"
			}
		}
		fmt.Printf("  bet #%d horse=%d stake=%d status=%s payout=%d placed=%s\n",
			bet.ID, bet.HorseID, bet.Amount, status, bet.Payout, bet.PlacedAt.Format("2006-01-02 15:04:05"))
	}

	switch {
	case payouts > winners:
		fmt.Printf("WARNING: %d payout transactions but only %d winning bets (possible double payout)\n", payouts, winners)
	case payouts < winners:
		fmt.Printf("WARNING: %d winning bets but only %d payout transactions (possible missed payout)\n", winners, payouts)
	default:
		fmt.Println("OK: payout transactions match winning bets")
	}
}
