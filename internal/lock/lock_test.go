package lock_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/subscription-sales/internal/lock"
)

var _ = Describe("EmailLocker", func() {
	var (
		server *miniredis.Miniredis
		client *redis.Client
		locker *lock.EmailLocker
	)

	BeforeEach(func() {
		var err error
		server, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = lock.NewRedisClient(server.Addr(), "", 0)
		locker = lock.NewEmailLocker(client, lock.Config{Expiry: 5 * time.Second, Tries: 2}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		server.Close()
	})

	It("should key the lock by the normalized email", func() {
		Expect(lock.Key(" Ana@Example.COM ")).To(Equal(lock.Key("ana@example.com")))
	})

	It("should hold the key until released", func() {
		// When
		release, err := locker.Lock(context.Background(), "Ana@Example.com")

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(server.Exists(lock.Key("ana@example.com"))).To(BeTrue())

		release()
		Expect(server.Exists(lock.Key("ana@example.com"))).To(BeFalse())
	})

	It("should refuse a second holder of the same email", func() {
		// Given
		release, err := locker.Lock(context.Background(), "ana@example.com")
		Expect(err).NotTo(HaveOccurred())
		defer release()

		// When
		_, err = locker.Lock(context.Background(), "ANA@example.com")

		// Then
		Expect(err).To(HaveOccurred())
	})

	It("should not block different emails", func() {
		first, err := locker.Lock(context.Background(), "ana@example.com")
		Expect(err).NotTo(HaveOccurred())
		defer first()

		second, err := locker.Lock(context.Background(), "bruno@example.com")
		Expect(err).NotTo(HaveOccurred())
		second()
	})
})
