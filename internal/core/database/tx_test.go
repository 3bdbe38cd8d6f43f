package database_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/subscription-sales/internal/core/database"
)

type note struct {
	ID   uint
	Body string
}

var _ = Describe("Transactor", func() {
	var (
		db         *gorm.DB
		transactor *database.Transactor
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&note{})).To(Succeed())

		transactor = database.NewTransactor(db)
		ctx = context.Background()
	})

	count := func() int64 {
		var n int64
		Expect(db.Model(&note{}).Count(&n).Error).NotTo(HaveOccurred())
		return n
	}

	It("should commit writes made through the context handle", func() {
		err := transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			return database.FromContext(txCtx, db).Create(&note{Body: "kept"}).Error
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count()).To(Equal(int64(1)))
	})

	It("should roll back when the unit of work fails", func() {
		err := transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			Expect(database.FromContext(txCtx, db).Create(&note{Body: "lost"}).Error).To(Succeed())
			return errors.New("abort")
		})

		Expect(err).To(MatchError("abort"))
		Expect(count()).To(BeZero())
	})

	It("should roll back when the unit of work panics", func() {
		Expect(func() {
			_ = transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
				database.FromContext(txCtx, db).Create(&note{Body: "lost"})
				panic("boom")
			})
		}).To(Panic())

		Expect(count()).To(BeZero())
	})

	It("should join an outer transaction on nested calls", func() {
		err := transactor.WithinTransaction(ctx, func(outer context.Context) error {
			Expect(transactor.WithinTransaction(outer, func(inner context.Context) error {
				return database.FromContext(inner, db).Create(&note{Body: "inner"}).Error
			})).To(Succeed())
			return errors.New("abort outer")
		})

		Expect(err).To(HaveOccurred())
		Expect(count()).To(BeZero())
	})
})
