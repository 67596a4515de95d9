package service

import (
	"context"
	"fmt"

	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// MigrationReport counts the accounts whose legacy plaintext passwords
// were upgraded to bcrypt hashes.
type MigrationReport struct {
	Buyers  int `json:"buyers"`
	Sellers int `json:"sellers"`
	Admins  int `json:"admins"`
}

func (r MigrationReport) Total() int {
	return r.Buyers + r.Sellers + r.Admins
}

const migrateBatchSize = 200

// MigratePasswords hashes every remaining plaintext password across
// all three account stores. Already-hashed credentials are left alone,
// so running the migration repeatedly is safe.
func (s *AuthService) MigratePasswords(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	for page := 1; ; page++ {
		buyers, _, err := s.store.ListBuyers(ctx, "", page, migrateBatchSize)
		if err != nil {
			return report, fmt.Errorf("list buyers: %w", err)
		}
		if len(buyers) == 0 {
			break
		}
		for i := range buyers {
			if IsHashed(buyers[i].Password) {
				continue
			}
			hash, err := HashPassword(buyers[i].Password)
			if err != nil {
				return report, fmt.Errorf("hash buyer password: %w", err)
			}
			if err := s.store.UpdateBuyerPassword(ctx, buyers[i].Email, hash); err != nil {
				return report, fmt.Errorf("update buyer password: %w", err)
			}
			report.Buyers++
		}
		if len(buyers) < migrateBatchSize {
			break
		}
	}

	for page := 1; ; page++ {
		sellers, _, err := s.store.ListSellers(ctx, "", page, migrateBatchSize)
		if err != nil {
			return report, fmt.Errorf("list sellers: %w", err)
		}
		if len(sellers) == 0 {
			break
		}
		for i := range sellers {
			if IsHashed(sellers[i].Password) {
				continue
			}
			hash, err := HashPassword(sellers[i].Password)
			if err != nil {
				return report, fmt.Errorf("hash seller password: %w", err)
			}
			if err := s.store.UpdateSellerPassword(ctx, sellers[i].Email, hash); err != nil {
				return report, fmt.Errorf("update seller password: %w", err)
			}
			report.Sellers++
		}
		if len(sellers) < migrateBatchSize {
			break
		}
	}

	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return report, fmt.Errorf("list admins: %w", err)
	}
	for i := range admins {
		if IsHashed(admins[i].Password) {
			continue
		}
		hash, err := HashPassword(admins[i].Password)
		if err != nil {
			return report, fmt.Errorf("hash admin password: %w", err)
		}
		if err := s.store.UpdateAdminPassword(ctx, admins[i].Email, hash); err != nil {
			return report, fmt.Errorf("update admin password: %w", err)
		}
		report.Admins++
	}

	s.logger.Info("password migration complete",
		"buyers", report.Buyers, "sellers", report.Sellers, "admins", report.Admins)
	return report, nil
}

// Store exposes the underlying store for handlers that combine
// authentication with persistence calls.
func (s *AuthService) Store() *store.Store {
	return s.store
}
