package sandbox

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/goliatone/go-bankconnect/core"
)

const defaultTransactionsPerEntity = 25

var (
	fixtureNames   = []string{"ASHA RAO", "VIKRAM MEHTA", "NEHA IYER", "ARJUN SINGH", "PRIYA NAIR"}
	fixtureBanks   = []string{"HDFC", "ICICI", "SBI", "AXIS", "KOTAK"}
	fixtureCities  = []string{"Bengaluru", "Mumbai", "Pune", "Chennai", "Hyderabad"}
	fixtureFrauds  = []string{"inconsistent_transaction", "negative_balance", "date_discontinuity", "author_fraud"}
	fixtureDetails = []string{"UPI/SWIGGY", "NEFT/SALARY", "ATM WDL", "IMPS/RENT", "POS/AMAZON", "ACH/EMI"}
)

// seedFixtures fills state with deterministic data drawn from rng, so the
// same link id always yields the same entity.
func seedFixtures(state *EntityState, rng *rand.Rand, transactions int) {
	bank := fixtureBanks[rng.Intn(len(fixtureBanks))]
	accountCount := 1 + rng.Intn(2)
	accounts := make([]core.Record, 0, accountCount)
	months := fixtureMonths(state.CreatedAt, 3)
	for i := 0; i < accountCount; i++ {
		accounts = append(accounts, core.Record{
			"account_id":       fmt.Sprintf("%s_acc_%d", state.EntityID[:8], i+1),
			"account_number":   fmt.Sprintf("XXXXXXXX%04d", rng.Intn(10000)),
			"bank":             bank,
			"account_category": "individual",
			"months":           months,
		})
	}

	primary := accounts[0]
	state.Identity = core.Record{
		"name":           fixtureNames[rng.Intn(len(fixtureNames))],
		"account_id":     primary["account_id"],
		"account_number": primary["account_number"],
		"address":        fmt.Sprintf("%d MG Road, %s", 1+rng.Intn(400), fixtureCities[rng.Intn(len(fixtureCities))]),
		"bank":           bank,
	}

	balance := float64(20000 + rng.Intn(80000))
	day := state.CreatedAt.AddDate(0, -3, 0)
	txns := make([]core.Record, 0, transactions)
	for i := 0; i < transactions; i++ {
		amount := math.Round(float64(100+rng.Intn(9900))*100) / 100
		kind := "debit"
		if rng.Intn(3) == 0 {
			kind = "credit"
			balance += amount
		} else {
			balance -= amount
		}
		day = day.Add(time.Duration(6+rng.Intn(60)) * time.Hour)
		account := accounts[rng.Intn(len(accounts))]
		txns = append(txns, core.Record{
			"transaction_id":   fmt.Sprintf("%s_txn_%03d", state.EntityID[:8], i+1),
			"account_id":       account["account_id"],
			"date":             day.Format("2006-01-02"),
			"transaction_type": kind,
			"amount":           amount,
			"balance":          math.Round(balance*100) / 100,
			"description":      fixtureDetails[rng.Intn(len(fixtureDetails))],
		})
	}

	fraudCount := rng.Intn(3)
	frauds := make([]core.Record, 0, fraudCount)
	for i := 0; i < fraudCount; i++ {
		frauds = append(frauds, core.Record{
			"fraud_type":   fixtureFrauds[rng.Intn(len(fixtureFrauds))],
			"statement_id": fmt.Sprintf("%s_stmt_%d", state.EntityID[:8], i+1),
			"account_id":   accounts[rng.Intn(len(accounts))]["account_id"],
		})
	}

	state.Resources = map[core.Resource][]core.Record{
		core.ResourceAccounts:     accounts,
		core.ResourceTransactions: txns,
		core.ResourceFraud:        frauds,
	}
}

func fixtureMonths(now time.Time, count int) []any {
	months := make([]any, 0, count)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := count; i > 0; i-- {
		months = append(months, start.AddDate(0, -i, 0).Format("2006-01"))
	}
	return months
}
