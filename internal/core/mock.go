package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// DefaultMockRecordCount is the size of a generated demo batch.
const DefaultMockRecordCount = 20

var (
	mockManufacturers = []string{"Medtronic", "Johnson & Johnson", "Abbott Laboratories", "Siemens Healthineers", "GE Healthcare"}
	mockPrefixes      = []string{"CardioFlow", "NeuroScan", "OrthoPro", "DiabeCare", "VitaSense"}
	mockSuffixes      = []string{"XL", "Pro", "Lite", "Advanced", "Plus", "Mini"}
)

func newSeed() int64 {
	return time.Now().UnixNano()
}

// GenerateMockRecords builds n unvalidated demo records from seed.
//
// Every 13th record has no manufacturer, every 14th a too-short device
// identifier, every 11th a malformed expiration date and every 5th has its
// dates reversed, so a validated batch shows each kind of issue. Three out
// of four records start locked.
func GenerateMockRecords(n int, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	today := time.Now().UTC().Truncate(24 * time.Hour)

	out := make([]Record, n)
	for i := 0; i < n; i++ {
		model := fmt.Sprintf("%c%d", 'A'+rng.Intn(26), rng.Intn(1000))
		production := today.AddDate(0, -rng.Intn(12), 0)
		expiration := production.AddDate(rng.Intn(5)+1, 0, 0)

		r := Record{
			ID:                uuid.NewString(),
			DeviceIdentifier:  fmt.Sprintf("UDI-%d-%s", 10000+i, model),
			ManufacturerName:  mockManufacturers[rng.Intn(len(mockManufacturers))],
			ProductName:       mockPrefixes[rng.Intn(len(mockPrefixes))] + " " + mockSuffixes[rng.Intn(len(mockSuffixes))],
			ModelNumber:       model,
			LotNumber:         fmt.Sprintf("LOT-%04d", rng.Intn(10000)),
			SerialNumber:      fmt.Sprintf("SN-%06d", rng.Intn(1000000)),
			ProductionDate:    production.Format(dateLayout),
			ExpirationDate:    expiration.Format(dateLayout),
			SingleUse:         rng.Intn(2) == 0,
			Sterilized:        rng.Intn(2) == 0,
			ContainsLatex:     rng.Intn(5) == 0,
			ContainsPhthalate: rng.Intn(8) == 0,
			Status:            StatusPending,
			IsLocked:          i%4 != 0,
		}

		switch {
		case i%13 == 0:
			r.ManufacturerName = ""
		case i%14 == 0:
			r.DeviceIdentifier = fmt.Sprintf("D%d", i%100)
		case i%11 == 0:
			r.ExpirationDate = expiration.Format("01/02/2006")
		case i%5 == 0:
			r.ProductionDate, r.ExpirationDate = r.ExpirationDate, r.ProductionDate
		}
		out[i] = r
	}
	return out
}
