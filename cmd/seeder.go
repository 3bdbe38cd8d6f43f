package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	sellerDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/seller"
	"github.com/frahmantamala/subscription-sales/internal/plan"
	planPostgres "github.com/frahmantamala/subscription-sales/internal/plan/postgres"
	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with demo plans and sellers for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, query, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer query.Close()

		ctx := context.Background()

		if clearData {
			if err := clearSalesData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing sales data")
		}

		plans := []struct {
			Code        string
			Description string
			Price       string
		}{
			{"BASIC-MONTHLY", "Plano Básico Mensal", "29.90"},
			{"PRO-MONTHLY", "Plano Profissional Mensal", "59.90"},
			{"ENTERPRISE-MONTHLY", "Plano Empresarial Mensal", "149.90"},
		}

		planService := plan.NewService(planPostgres.NewPlanRepository(db), logger.L())
		for _, p := range plans {
			if err := planService.Upsert(ctx, plan.NewPlan(p.Code, p.Description, decimal.RequireFromString(p.Price))); err != nil {
				log.Fatalf("failed to seed plan %s: %v", p.Code, err)
			}
			fmt.Printf("Seeded plan: %s\n", p.Code)
		}

		sellers := []struct {
			Name   string
			Email  string
			PixKey string
		}{
			{"Fadhil Vendas", "fadhil@mail.com", "fadhil@mail.com"},
			{"Padil Comercial", "padil@mail.com", ""},
		}

		for _, s := range sellers {
			now := time.Now()
			seller := sellerDatamodel.Seller{}
			attrs := sellerDatamodel.Seller{ID: uuid.New(), Name: s.Name, CreatedAt: now, UpdatedAt: now}
			if s.PixKey != "" {
				pixKey := s.PixKey
				attrs.PixKey = &pixKey
			}

			result := db.WithContext(ctx).
				Where(sellerDatamodel.Seller{Email: s.Email}).
				Attrs(attrs).
				FirstOrCreate(&seller)
			if result.Error != nil {
				log.Fatalf("failed to seed seller %s: %v", s.Email, result.Error)
			}
			if result.RowsAffected == 0 {
				fmt.Println("seller already exists:", s.Email)
				continue
			}
			fmt.Printf("Seeded seller: %s (%s)\n", s.Email, seller.ID)
		}

		fmt.Println("Plans and sellers seeded successfully")
	},
}

// clearSalesData empties the tables in dependency order.
func clearSalesData(db *gorm.DB) error {
	tables := []string{"purchase_confirmations", "transactions", "orders", "customers", "sellers", "plans"}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}
