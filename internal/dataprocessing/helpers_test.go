package dataprocessing

import (
	"time"

	"regpulse/pkg/contracts/domain"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func day(year int, m time.Month, d int) time.Time {
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(date time.Time, category, manufacturer string, registrations int64) domain.Record {
	return domain.Record{
		Date:          date,
		Category:      category,
		Manufacturer:  manufacturer,
		Registrations: registrations,
	}
}

func bucketed(records ...domain.Record) []domain.BucketedRecord {
	return AddTimeParts(domain.Dataset(records))
}

var (
	byCategory     = []domain.Dimension{domain.DimensionCategory}
	byManufacturer = []domain.Dimension{domain.DimensionManufacturer}
)
